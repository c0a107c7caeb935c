// Package storage defines persistence for the media library.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested media record does not exist.
var ErrNotFound = errors.New("media: not found")

// MediaRecord is one uploaded file tracked by the library.
type MediaRecord struct {
	ID          string
	Path        string
	URL         string
	Kind        string
	Filename    string
	ContentType string
	SizeBytes   int64
	UploadedAt  time.Time
}

// MediaStore persists media library records.
type MediaStore interface {
	PutMedia(ctx context.Context, record MediaRecord) error
	GetMedia(ctx context.Context, id string) (MediaRecord, error)
	ListMedia(ctx context.Context) ([]MediaRecord, error)
	DeleteMedia(ctx context.Context, id string) error
}
