package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/id"
	"github.com/inkwellhq/inkwell/internal/services/media/storage"
)

// Media is one file in the library.
type Media struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	Kind        Kind      `json:"kind"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type,omitzero"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// UploadInput describes one incoming file.
type UploadInput struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// Service coordinates uploads between the object store and the library.
type Service struct {
	objects ObjectStore
	store   storage.MediaStore

	now   func() time.Time
	newID func() (string, error)
}

// NewService builds a media service over the provided stores.
func NewService(objects ObjectStore, store storage.MediaStore) *Service {
	return &Service{
		objects: objects,
		store:   store,
		now:     time.Now,
		newID:   id.NewID,
	}
}

// Upload stores the file bytes and records it in the library.
func (s *Service) Upload(ctx context.Context, input UploadInput) (Media, error) {
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		return Media{}, apperrors.E(apperrors.KindInvalidInput, "filename is required")
	}
	if input.Body == nil {
		return Media{}, apperrors.E(apperrors.KindInvalidInput, "file body is required")
	}
	if input.SizeBytes < 0 {
		return Media{}, apperrors.E(apperrors.KindInvalidInput, "file size must not be negative")
	}

	mediaID, err := s.newID()
	if err != nil {
		return Media{}, apperrors.Wrap(apperrors.KindUnknown, "generate media id", err)
	}

	kind := Classify(filename, input.ContentType)
	uploadedAt := s.now().UTC()
	objectPath := ObjectPath(kind, uploadedAt, mediaID, filepath.Ext(filename))

	url, err := s.objects.Put(ctx, objectPath, input.ContentType, input.SizeBytes, input.Body)
	if err != nil {
		return Media{}, apperrors.Wrap(apperrors.KindUnavailable, "store file", err)
	}

	record := storage.MediaRecord{
		ID:          mediaID,
		Path:        objectPath,
		URL:         url,
		Kind:        string(kind),
		Filename:    filename,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		UploadedAt:  uploadedAt,
	}
	if err := s.store.PutMedia(ctx, record); err != nil {
		return Media{}, apperrors.Wrap(apperrors.KindUnknown, "record upload", err)
	}
	return fromRecord(record), nil
}

// Get returns one library entry by id.
func (s *Service) Get(ctx context.Context, mediaID string) (Media, error) {
	record, err := s.store.GetMedia(ctx, strings.TrimSpace(mediaID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Media{}, apperrors.E(apperrors.KindNotFound, "media not found")
		}
		return Media{}, apperrors.Wrap(apperrors.KindUnknown, "load media", err)
	}
	return fromRecord(record), nil
}

// List returns the library, newest first.
func (s *Service) List(ctx context.Context) ([]Media, error) {
	records, err := s.store.ListMedia(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list media", err)
	}
	items := make([]Media, 0, len(records))
	for _, record := range records {
		items = append(items, fromRecord(record))
	}
	return items, nil
}

// Delete removes both the stored object and the library entry.
func (s *Service) Delete(ctx context.Context, mediaID string) error {
	record, err := s.store.GetMedia(ctx, strings.TrimSpace(mediaID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.E(apperrors.KindNotFound, "media not found")
		}
		return apperrors.Wrap(apperrors.KindUnknown, "load media", err)
	}
	if err := s.objects.Remove(ctx, record.Path); err != nil {
		return apperrors.Wrap(apperrors.KindUnavailable, "remove file", err)
	}
	if err := s.store.DeleteMedia(ctx, record.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.KindUnknown, "delete media", err)
	}
	return nil
}

func fromRecord(record storage.MediaRecord) Media {
	return Media{
		ID:          record.ID,
		Path:        record.Path,
		URL:         record.URL,
		Kind:        Kind(record.Kind),
		Filename:    record.Filename,
		ContentType: record.ContentType,
		SizeBytes:   record.SizeBytes,
		UploadedAt:  record.UploadedAt,
	}
}
