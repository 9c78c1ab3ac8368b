package db

import (
	"context"
	"fmt"

	"feedmaker/internal/config"
	"feedmaker/internal/models"
)

// Store хранит записи каналов. Реализации: PostgreSQL (Database) и SQLite (SQLite).
type Store interface {
	// SaveEntry сохраняет запись. Запись с теми же channel и link обновляется,
	// итоговый ID записывается в e.
	SaveEntry(ctx context.Context, e *models.Entry) error
	// ListEntries возвращает не более limit последних записей канала, новые первыми.
	ListEntries(ctx context.Context, channel string, limit int) ([]models.Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open открывает хранилище по настройкам и применяет миграции.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		database, err := NewDB(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		return database, nil
	case config.DriverSQLite:
		lite, err := OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := lite.Migrate(ctx); err != nil {
			lite.Close()
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}

const maxListLimit = 1000

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

type rowScanner interface {
	Scan(dest ...any) error
}

const entryColumns = `id, channel, title, link, description, author, category, comments, guid,
	published, source_url, source_name, enclosure_url, enclosure_length, enclosure_type, created_at`

func scanEntry(row rowScanner) (models.Entry, error) {
	var e models.Entry
	err := row.Scan(&e.ID, &e.Channel, &e.Title, &e.Link, &e.Description, &e.Author, &e.Category,
		&e.Comments, &e.GUID, &e.Published, &e.SourceURL, &e.SourceName, &e.EnclosureURL,
		&e.EnclosureLength, &e.EnclosureType, &e.CreatedAt)
	return e, err
}

func entryArgs(e *models.Entry) []any {
	return []any{e.ID, e.Channel, e.Title, e.Link, e.Description, e.Author, e.Category,
		e.Comments, e.GUID, e.Published.UTC(), e.SourceURL, e.SourceName, e.EnclosureURL,
		e.EnclosureLength, e.EnclosureType, e.CreatedAt.UTC()}
}
