// Package sqlite provides SQLite-backed persistence for newsletter subscribers.
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
	"github.com/inkwellhq/inkwell/internal/services/newsletter/storage"
	"github.com/inkwellhq/inkwell/internal/services/newsletter/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for subscribers.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a newsletter SQLite store at the provided path.
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

// PutSubscriber upserts a subscriber row keyed by email.
func (s *Store) PutSubscriber(ctx context.Context, record storage.SubscriberRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email := strings.TrimSpace(record.Email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	active := 0
	if record.Active {
		active = 1
	}
	subscribedAt := record.SubscribedAt
	if subscribedAt.IsZero() {
		subscribedAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO subscribers (email, active, subscribed_at) VALUES (?, ?, ?)
ON CONFLICT(email) DO UPDATE SET active = excluded.active`,
		email, active, subscribedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert subscriber: %w", err)
	}
	return nil
}

// GetSubscriber returns one subscriber by email.
func (s *Store) GetSubscriber(ctx context.Context, email string) (storage.SubscriberRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SubscriberRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT email, active, subscribed_at FROM subscribers WHERE email = ?",
		strings.TrimSpace(email))

	var record storage.SubscriberRecord
	var active int
	var subscribedAt int64
	if err := row.Scan(&record.Email, &active, &subscribedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SubscriberRecord{}, storage.ErrNotFound
		}
		return storage.SubscriberRecord{}, fmt.Errorf("scan subscriber row: %w", err)
	}
	record.Active = active == 1
	record.SubscribedAt = time.UnixMilli(subscribedAt).UTC()
	return record, nil
}

// ListSubscribers returns subscribers, optionally only active ones.
func (s *Store) ListSubscribers(ctx context.Context, activeOnly bool) ([]storage.SubscriberRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := "SELECT email, active, subscribed_at FROM subscribers"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY subscribed_at DESC"

	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.SubscriberRecord
	for rows.Next() {
		var record storage.SubscriberRecord
		var active int
		var subscribedAt int64
		if err := rows.Scan(&record.Email, &active, &subscribedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber row: %w", err)
		}
		record.Active = active == 1
		record.SubscribedAt = time.UnixMilli(subscribedAt).UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}
