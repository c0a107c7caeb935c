// Package sqlite provides SQLite-backed persistence for blog content.
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
	"github.com/inkwellhq/inkwell/internal/services/content/storage"
	"github.com/inkwellhq/inkwell/internal/services/content/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for blog content.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a content SQLite store at the provided path.
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

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

// PutPost upserts a post row and its tag links.
func (s *Store) PutPost(ctx context.Context, record storage.PostRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("post id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var publishedAt any
	if !record.PublishedAt.IsZero() {
		publishedAt = toMillis(record.PublishedAt)
	}
	var categoryID any
	if strings.TrimSpace(record.CategoryID) != "" {
		categoryID = record.CategoryID
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO posts (
    id, slug, title, excerpt, body, cover_image_url,
    seo_title, seo_description, status, published_at,
    category_id, read_time_minutes, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    slug = excluded.slug,
    title = excluded.title,
    excerpt = excluded.excerpt,
    body = excluded.body,
    cover_image_url = excluded.cover_image_url,
    seo_title = excluded.seo_title,
    seo_description = excluded.seo_description,
    status = excluded.status,
    published_at = excluded.published_at,
    category_id = excluded.category_id,
    read_time_minutes = excluded.read_time_minutes,
    updated_at = excluded.updated_at`,
		record.ID, record.Slug, record.Title, record.Excerpt, record.Body,
		record.CoverImageURL, record.SEOTitle, record.SEODescription,
		record.Status, publishedAt, categoryID, record.ReadTimeMinutes,
		toMillis(record.CreatedAt), toMillis(record.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("upsert post: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM post_tags WHERE post_id = ?", record.ID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	for _, tagID := range record.TagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)", record.ID, tagID); err != nil {
			return fmt.Errorf("insert post tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit post: %w", err)
	}
	return nil
}

const postColumns = `
    p.id, p.slug, p.title, p.excerpt, p.body, p.cover_image_url,
    p.seo_title, p.seo_description, p.status, p.published_at,
    p.category_id, p.read_time_minutes, p.created_at, p.updated_at`

func (s *Store) scanPost(ctx context.Context, row interface{ Scan(...any) error }) (storage.PostRecord, error) {
	var record storage.PostRecord
	var publishedAt sql.NullInt64
	var categoryID sql.NullString
	var createdAt, updatedAt int64
	err := row.Scan(
		&record.ID, &record.Slug, &record.Title, &record.Excerpt, &record.Body,
		&record.CoverImageURL, &record.SEOTitle, &record.SEODescription,
		&record.Status, &publishedAt, &categoryID, &record.ReadTimeMinutes,
		&createdAt, &updatedAt)
	if err != nil {
		return storage.PostRecord{}, err
	}
	if publishedAt.Valid {
		record.PublishedAt = fromMillis(publishedAt.Int64)
	}
	if categoryID.Valid {
		record.CategoryID = categoryID.String
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)

	record.TagIDs, err = s.postTagIDs(ctx, record.ID)
	if err != nil {
		return storage.PostRecord{}, err
	}
	return record, nil
}

func (s *Store) postTagIDs(ctx context.Context, postID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT tag_id FROM post_tags WHERE post_id = ? ORDER BY tag_id", postID)
	if err != nil {
		return nil, fmt.Errorf("query post tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tagIDs []string
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			return nil, fmt.Errorf("scan post tag: %w", err)
		}
		tagIDs = append(tagIDs, tagID)
	}
	return tagIDs, rows.Err()
}

// GetPost returns one post by id.
func (s *Store) GetPost(ctx context.Context, id string) (storage.PostRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PostRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT"+postColumns+" FROM posts p WHERE p.id = ?", strings.TrimSpace(id))
	record, err := s.scanPost(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.PostRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PostRecord{}, fmt.Errorf("scan post row: %w", err)
	}
	return record, nil
}

// GetPostBySlug returns one post by slug.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (storage.PostRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PostRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT"+postColumns+" FROM posts p WHERE p.slug = ?", strings.TrimSpace(slug))
	record, err := s.scanPost(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.PostRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PostRecord{}, fmt.Errorf("scan post row: %w", err)
	}
	return record, nil
}

// ListPosts returns posts matching the filter, newest first by published_at
// then created_at.
func (s *Store) ListPosts(ctx context.Context, filter storage.PostFilter) ([]storage.PostRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := "SELECT" + postColumns + " FROM posts p"
	var clauses []string
	var args []any

	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		query += " JOIN categories c ON c.id = p.category_id"
		clauses = append(clauses, "c.slug = ?")
		args = append(args, slug)
	}
	if slug := strings.TrimSpace(filter.TagSlug); slug != "" {
		query += " JOIN post_tags pt ON pt.post_id = p.id JOIN tags t ON t.id = pt.tag_id"
		clauses = append(clauses, "t.slug = ?")
		args = append(args, slug)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		clauses = append(clauses, "p.status = ?")
		args = append(args, status)
	}
	if !filter.PublishedBefore.IsZero() {
		clauses = append(clauses, "p.published_at IS NOT NULL AND p.published_at <= ?")
		args = append(args, toMillis(filter.PublishedBefore))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		clauses = append(clauses, "(lower(p.title) LIKE ? OR lower(p.excerpt) LIKE ? OR lower(p.body) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY p.published_at DESC, p.created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []storage.PostRecord
	for rows.Next() {
		record, err := s.scanPost(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return records, nil
}

// DeletePost removes a post and its tag links.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PutCategory upserts one category row.
func (s *Store) PutCategory(ctx context.Context, record storage.CategoryRecord) error {
	return s.putTaxon(ctx, "categories", record.ID, record.Slug, record.Name)
}

// GetCategoryBySlug returns one category by slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (storage.CategoryRecord, error) {
	id, name, err := s.getTaxonBySlug(ctx, "categories", slug)
	if err != nil {
		return storage.CategoryRecord{}, err
	}
	return storage.CategoryRecord{ID: id, Slug: strings.TrimSpace(slug), Name: name}, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]storage.CategoryRecord, error) {
	rows, err := s.listTaxons(ctx, "categories")
	if err != nil {
		return nil, err
	}
	records := make([]storage.CategoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, storage.CategoryRecord(row))
	}
	return records, nil
}

// DeleteCategory removes one category.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteTaxon(ctx, "categories", id)
}

// PutTag upserts one tag row.
func (s *Store) PutTag(ctx context.Context, record storage.TagRecord) error {
	return s.putTaxon(ctx, "tags", record.ID, record.Slug, record.Name)
}

// GetTagBySlug returns one tag by slug.
func (s *Store) GetTagBySlug(ctx context.Context, slug string) (storage.TagRecord, error) {
	id, name, err := s.getTaxonBySlug(ctx, "tags", slug)
	if err != nil {
		return storage.TagRecord{}, err
	}
	return storage.TagRecord{ID: id, Slug: strings.TrimSpace(slug), Name: name}, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]storage.TagRecord, error) {
	rows, err := s.listTaxons(ctx, "tags")
	if err != nil {
		return nil, err
	}
	records := make([]storage.TagRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, storage.TagRecord(row))
	}
	return records, nil
}

// DeleteTag removes one tag.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	return s.deleteTaxon(ctx, "tags", id)
}

type taxonRow struct {
	ID   string
	Slug string
	Name string
}

func (s *Store) putTaxon(ctx context.Context, table, id, slug, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO `+table+` (id, slug, name) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET slug = excluded.slug, name = excluded.name`,
		id, slug, name)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func (s *Store) getTaxonBySlug(ctx context.Context, table, slug string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, name FROM "+table+" WHERE slug = ?", strings.TrimSpace(slug))
	var id, name string
	if err := row.Scan(&id, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", storage.ErrNotFound
		}
		return "", "", fmt.Errorf("scan %s row: %w", table, err)
	}
	return id, name, nil
}

func (s *Store) listTaxons(ctx context.Context, table string) ([]taxonRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT id, slug, name FROM "+table+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var records []taxonRow
	for rows.Next() {
		var record taxonRow
		if err := rows.Scan(&record.ID, &record.Slug, &record.Name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) deleteTaxon(ctx context.Context, table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s rows affected: %w", table, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
