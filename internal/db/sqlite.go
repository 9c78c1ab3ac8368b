package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"feedmaker/internal/logger"
	"feedmaker/internal/models"

	_ "modernc.org/sqlite"
)

// SQLite - хранилище записей в одном файле SQLite.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite открывает или создаёт базу по пути path и включает режим WAL.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	logger.Component("db").WithField("path", path).Info("sqlite database opened")
	return &SQLite{db: conn, path: path}, nil
}

// Path возвращает путь к файлу базы.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate создаёт таблицу entries и индексы.
func (s *SQLite) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			channel TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			comments TEXT NOT NULL DEFAULT '',
			guid TEXT NOT NULL DEFAULT '',
			published DATETIME NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			source_name TEXT NOT NULL DEFAULT '',
			enclosure_url TEXT NOT NULL DEFAULT '',
			enclosure_length INTEGER NOT NULL DEFAULT 0,
			enclosure_type TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS entries_channel_link ON entries (channel, link) WHERE link <> ''`,
		`CREATE INDEX IF NOT EXISTS entries_channel_published ON entries (channel, published DESC)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// SaveEntry вставляет запись или обновляет существующую с теми же channel и link.
func (s *SQLite) SaveEntry(ctx context.Context, e *models.Entry) error {
	e.Prepare(time.Now())
	return s.db.QueryRowContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (channel, link) WHERE link <> '' DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			author = excluded.author,
			category = excluded.category,
			comments = excluded.comments,
			guid = excluded.guid,
			published = excluded.published,
			source_url = excluded.source_url,
			source_name = excluded.source_name,
			enclosure_url = excluded.enclosure_url,
			enclosure_length = excluded.enclosure_length,
			enclosure_type = excluded.enclosure_type
		RETURNING id
	`, entryArgs(e)...).Scan(&e.ID)
}

// ListEntries возвращает последние записи канала, новые первыми.
func (s *SQLite) ListEntries(ctx context.Context, channel string, limit int) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE channel = ?
		ORDER BY published DESC, created_at DESC
		LIMIT ?
	`, channel, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
