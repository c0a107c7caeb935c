// Package sqlite provides SQLite-backed persistence for live-chat state.
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
	"github.com/inkwellhq/inkwell/internal/services/chat/storage"
	"github.com/inkwellhq/inkwell/internal/services/chat/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for chat state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a chat SQLite store at the provided path.
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

// GetPresence reads the presence singleton. A store that has never been
// toggled reports offline rather than ErrNotFound.
func (s *Store) GetPresence(ctx context.Context) (storage.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PresenceRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT is_online, updated_at, updated_by FROM presence_settings WHERE id = 1")

	var isOnline int
	var updatedAt int64
	var updatedBy string
	if err := row.Scan(&isOnline, &updatedAt, &updatedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PresenceRecord{IsOnline: false}, nil
		}
		return storage.PresenceRecord{}, fmt.Errorf("scan presence row: %w", err)
	}
	return storage.PresenceRecord{
		IsOnline:  isOnline == 1,
		UpdatedAt: fromMillis(updatedAt),
		UpdatedBy: updatedBy,
	}, nil
}

// SetPresence upserts the presence singleton in place.
func (s *Store) SetPresence(ctx context.Context, record storage.PresenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	isOnline := 0
	if record.IsOnline {
		isOnline = 1
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO presence_settings (id, is_online, updated_at, updated_by)
VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    is_online = excluded.is_online,
    updated_at = excluded.updated_at,
    updated_by = excluded.updated_by`,
		isOnline, toMillis(updatedAt), record.UpdatedBy)
	if err != nil {
		return fmt.Errorf("upsert presence row: %w", err)
	}
	return nil
}

// PutBlockedIP inserts a moderated address. Re-blocking an address is a no-op.
func (s *Store) PutBlockedIP(ctx context.Context, record storage.BlockedIPRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	address := strings.TrimSpace(record.Address)
	if address == "" {
		return fmt.Errorf("address is required")
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT OR IGNORE INTO blocked_ips (address, created_at, created_by) VALUES (?, ?, ?)",
		address, toMillis(createdAt), record.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert blocked ip: %w", err)
	}
	return nil
}

// DeleteBlockedIP removes a moderated address.
func (s *Store) DeleteBlockedIP(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM blocked_ips WHERE address = ?", strings.TrimSpace(address))
	if err != nil {
		return fmt.Errorf("delete blocked ip: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete blocked ip rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetBlockedIP looks up a moderated address by exact match.
func (s *Store) GetBlockedIP(ctx context.Context, address string) (storage.BlockedIPRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.BlockedIPRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT address, created_at, created_by FROM blocked_ips WHERE address = ?",
		strings.TrimSpace(address))

	var record storage.BlockedIPRecord
	var createdAt int64
	if err := row.Scan(&record.Address, &createdAt, &record.CreatedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.BlockedIPRecord{}, storage.ErrNotFound
		}
		return storage.BlockedIPRecord{}, fmt.Errorf("scan blocked ip row: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// ListBlockedIPs returns all moderated addresses, newest first.
func (s *Store) ListBlockedIPs(ctx context.Context) ([]storage.BlockedIPRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT address, created_at, created_by FROM blocked_ips ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query blocked ips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.BlockedIPRecord
	for rows.Next() {
		var record storage.BlockedIPRecord
		var createdAt int64
		if err := rows.Scan(&record.Address, &createdAt, &record.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan blocked ip row: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocked ips: %w", err)
	}
	return records, nil
}

// PutConversation inserts one conversation row.
func (s *Store) PutConversation(ctx context.Context, record storage.ConversationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("conversation id is required")
	}
	if strings.TrimSpace(record.VisitorID) == "" {
		return fmt.Errorf("visitor id is required")
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO conversations (id, visitor_id, visitor_label, created_at) VALUES (?, ?, ?, ?)",
		record.ID, record.VisitorID, record.VisitorLabel, toMillis(createdAt))
	if err != nil {
		if sqlitemigrate.IsAlreadyExistsError(err) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// GetConversationByVisitor returns the conversation owned by a visitor.
func (s *Store) GetConversationByVisitor(ctx context.Context, visitorID string) (storage.ConversationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ConversationRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, visitor_id, visitor_label, created_at FROM conversations WHERE visitor_id = ?",
		strings.TrimSpace(visitorID))

	var record storage.ConversationRecord
	var createdAt int64
	if err := row.Scan(&record.ID, &record.VisitorID, &record.VisitorLabel, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ConversationRecord{}, storage.ErrNotFound
		}
		return storage.ConversationRecord{}, fmt.Errorf("scan conversation row: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// PutMessage inserts one message row.
func (s *Store) PutMessage(ctx context.Context, record storage.MessageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("message id is required")
	}
	if strings.TrimSpace(record.ConversationID) == "" {
		return fmt.Errorf("conversation id is required")
	}
	sentAt := record.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO messages (id, conversation_id, sender, body, sent_at) VALUES (?, ?, ?, ?, ?)",
		record.ID, record.ConversationID, record.Sender, record.Body, toMillis(sentAt))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages for a conversation, oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]storage.MessageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, conversation_id, sender, body, sent_at
FROM messages
WHERE conversation_id = ?
ORDER BY sent_at ASC, id ASC
LIMIT ?`, strings.TrimSpace(conversationID), limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.MessageRecord
	for rows.Next() {
		var record storage.MessageRecord
		var sentAt int64
		if err := rows.Scan(&record.ID, &record.ConversationID, &record.Sender, &record.Body, &sentAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		record.SentAt = fromMillis(sentAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return records, nil
}
