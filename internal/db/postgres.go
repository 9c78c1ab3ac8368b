package db

import (
	"context"
	"fmt"
	"time"

	"feedmaker/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Database инкапсулирует пул соединений к PostgreSQL.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDB создаёт новый пул соединений по connString и возвращает Database.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Database{Pool: pool}, nil
}

// Close закрывает пул соединений.
func (db *Database) Close() error {
	db.Pool.Close()
	return nil
}

// Ping проверяет доступность базы.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate создаёт таблицу entries и индексы, если их ещё нет.
func (db *Database) Migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS entries (
            id UUID PRIMARY KEY,
            channel TEXT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            link TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            author TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            comments TEXT NOT NULL DEFAULT '',
            guid TEXT NOT NULL DEFAULT '',
            published TIMESTAMP WITH TIME ZONE NOT NULL,
            source_url TEXT NOT NULL DEFAULT '',
            source_name TEXT NOT NULL DEFAULT '',
            enclosure_url TEXT NOT NULL DEFAULT '',
            enclosure_length BIGINT NOT NULL DEFAULT 0,
            enclosure_type TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
        );
        CREATE UNIQUE INDEX IF NOT EXISTS entries_channel_link ON entries (channel, link) WHERE link <> '';
        CREATE INDEX IF NOT EXISTS entries_channel_published ON entries (channel, published DESC);
    `)
	if err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// SaveEntry сохраняет запись в таблицу entries.
// В случае конфликта по (channel, link) запись обновляется и сохраняет прежний id.
func (db *Database) SaveEntry(ctx context.Context, e *models.Entry) error {
	e.Prepare(time.Now())
	return db.Pool.QueryRow(ctx, `
        INSERT INTO entries (`+entryColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (channel, link) WHERE link <> '' DO UPDATE SET
            title = EXCLUDED.title,
            description = EXCLUDED.description,
            author = EXCLUDED.author,
            category = EXCLUDED.category,
            comments = EXCLUDED.comments,
            guid = EXCLUDED.guid,
            published = EXCLUDED.published,
            source_url = EXCLUDED.source_url,
            source_name = EXCLUDED.source_name,
            enclosure_url = EXCLUDED.enclosure_url,
            enclosure_length = EXCLUDED.enclosure_length,
            enclosure_type = EXCLUDED.enclosure_type
        RETURNING id, created_at
    `, entryArgs(e)...).Scan(&e.ID, &e.CreatedAt)
}

// ListEntries возвращает последние записи канала, сортированные по дате публикации.
func (db *Database) ListEntries(ctx context.Context, channel string, limit int) ([]models.Entry, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT `+entryColumns+`
        FROM entries
        WHERE channel = $1
        ORDER BY published DESC, created_at DESC
        LIMIT $2
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
