// Package sqlite provides SQLite-backed persistence for surveys.
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
	"github.com/inkwellhq/inkwell/internal/services/survey/storage"
	"github.com/inkwellhq/inkwell/internal/services/survey/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for surveys and responses.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a survey SQLite store at the provided path.
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

// PutSurvey upserts one survey row.
func (s *Store) PutSurvey(ctx context.Context, record storage.SurveyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("survey id is required")
	}
	active := 0
	if record.Active {
		active = 1
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	questions := record.Questions
	if len(questions) == 0 {
		questions = []byte("[]")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO surveys (id, title, questions, active, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    questions = excluded.questions,
    active = excluded.active`,
		record.ID, record.Title, string(questions), active, createdAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert survey: %w", err)
	}
	return nil
}

// GetSurvey returns one survey by id.
func (s *Store) GetSurvey(ctx context.Context, id string) (storage.SurveyRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SurveyRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, title, questions, active, created_at FROM surveys WHERE id = ?",
		strings.TrimSpace(id))
	return scanSurvey(row)
}

// ListSurveys returns surveys, optionally only active ones, newest first.
func (s *Store) ListSurveys(ctx context.Context, activeOnly bool) ([]storage.SurveyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := "SELECT id, title, questions, active, created_at FROM surveys"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query surveys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.SurveyRecord
	for rows.Next() {
		record, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteSurvey removes one survey and its responses.
func (s *Store) DeleteSurvey(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM surveys WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete survey rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PutResponse inserts one response row.
func (s *Store) PutResponse(ctx context.Context, record storage.ResponseRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("response id is required")
	}
	answers := record.Answers
	if len(answers) == 0 {
		answers = []byte("{}")
	}
	submittedAt := record.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO survey_responses (id, survey_id, visitor_id, answers, submitted_at) VALUES (?, ?, ?, ?, ?)",
		record.ID, record.SurveyID, record.VisitorID, string(answers), submittedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// ListResponses returns a survey's responses, oldest first.
func (s *Store) ListResponses(ctx context.Context, surveyID string) ([]storage.ResponseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, survey_id, visitor_id, answers, submitted_at
FROM survey_responses
WHERE survey_id = ?
ORDER BY submitted_at ASC, id ASC`, strings.TrimSpace(surveyID))
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.ResponseRecord
	for rows.Next() {
		var record storage.ResponseRecord
		var answers string
		var submittedAt int64
		if err := rows.Scan(&record.ID, &record.SurveyID, &record.VisitorID, &answers, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan response row: %w", err)
		}
		record.Answers = []byte(answers)
		record.SubmittedAt = time.UnixMilli(submittedAt).UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanSurvey(row interface{ Scan(...any) error }) (storage.SurveyRecord, error) {
	var record storage.SurveyRecord
	var questions string
	var active int
	var createdAt int64
	if err := row.Scan(&record.ID, &record.Title, &questions, &active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SurveyRecord{}, storage.ErrNotFound
		}
		return storage.SurveyRecord{}, fmt.Errorf("scan survey row: %w", err)
	}
	record.Questions = []byte(questions)
	record.Active = active == 1
	record.CreatedAt = time.UnixMilli(createdAt).UTC()
	return record, nil
}
