// Package sqlite provides SQLite-backed persistence for the media library.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/inkwellhq/inkwell/internal/platform/storage/sqlitemigrate"
	"github.com/inkwellhq/inkwell/internal/services/media/storage"
	"github.com/inkwellhq/inkwell/internal/services/media/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for media records.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a media SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutMedia upserts one media row.
func (s *Store) PutMedia(ctx context.Context, record storage.MediaRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("media id is required")
	}
	uploadedAt := record.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO media (id, path, url, kind, filename, content_type, size_bytes, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    path = excluded.path,
    url = excluded.url,
    kind = excluded.kind,
    filename = excluded.filename,
    content_type = excluded.content_type,
    size_bytes = excluded.size_bytes`,
		record.ID, record.Path, record.URL, record.Kind, record.Filename,
		record.ContentType, record.SizeBytes, uploadedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert media: %w", err)
	}
	return nil
}

// GetMedia returns one media record by id.
func (s *Store) GetMedia(ctx context.Context, id string) (storage.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MediaRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, path, url, kind, filename, content_type, size_bytes, uploaded_at
FROM media WHERE id = ?`, strings.TrimSpace(id))
	return scanMedia(row)
}

// ListMedia returns all media records, newest first.
func (s *Store) ListMedia(ctx context.Context) ([]storage.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, path, url, kind, filename, content_type, size_bytes, uploaded_at
FROM media
ORDER BY uploaded_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.MediaRecord
	for rows.Next() {
		record, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteMedia removes one media record.
func (s *Store) DeleteMedia(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM media WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete media rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanMedia(row interface{ Scan(...any) error }) (storage.MediaRecord, error) {
	var record storage.MediaRecord
	var uploadedAt int64
	err := row.Scan(&record.ID, &record.Path, &record.URL, &record.Kind,
		&record.Filename, &record.ContentType, &record.SizeBytes, &uploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MediaRecord{}, storage.ErrNotFound
		}
		return storage.MediaRecord{}, fmt.Errorf("scan media row: %w", err)
	}
	record.UploadedAt = time.UnixMilli(uploadedAt).UTC()
	return record, nil
}
