// Package storage defines persistence contracts for blog content.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a uniqueness constraint was violated.
var ErrConflict = errors.New("record conflict")

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
)

// PostRecord is one stored blog post.
type PostRecord struct {
	ID              string
	Slug            string
	Title           string
	Excerpt         string
	Body            string
	CoverImageURL   string
	SEOTitle        string
	SEODescription  string
	Status          string
	PublishedAt     time.Time
	CategoryID      string
	TagIDs          []string
	ReadTimeMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CategoryRecord is one stored post category.
type CategoryRecord struct {
	ID   string
	Slug string
	Name string
}

// TagRecord is one stored post tag.
type TagRecord struct {
	ID   string
	Slug string
	Name string
}

// PostFilter narrows ListPosts results. Zero values mean "no constraint".
type PostFilter struct {
	Status          string
	CategorySlug    string
	TagSlug         string
	Search          string
	PublishedBefore time.Time
	Limit           int
	Offset          int
}

// PostStore persists blog posts.
type PostStore interface {
	PutPost(ctx context.Context, record PostRecord) error
	GetPost(ctx context.Context, id string) (PostRecord, error)
	GetPostBySlug(ctx context.Context, slug string) (PostRecord, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]PostRecord, error)
	DeletePost(ctx context.Context, id string) error
}

// TaxonomyStore persists categories and tags.
type TaxonomyStore interface {
	PutCategory(ctx context.Context, record CategoryRecord) error
	GetCategoryBySlug(ctx context.Context, slug string) (CategoryRecord, error)
	ListCategories(ctx context.Context) ([]CategoryRecord, error)
	DeleteCategory(ctx context.Context, id string) error

	PutTag(ctx context.Context, record TagRecord) error
	GetTagBySlug(ctx context.Context, slug string) (TagRecord, error)
	ListTags(ctx context.Context) ([]TagRecord, error)
	DeleteTag(ctx context.Context, id string) error
}

// ContentStore combines every content persistence concern.
type ContentStore interface {
	PostStore
	TaxonomyStore
}
