package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/services/media/storage"
)

type fakeObjectStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(ctx context.Context, objectPath, contentType string, size int64, body io.Reader) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.objects[objectPath] = data
	return "https://cdn.example.com/" + objectPath, nil
}

func (f *fakeObjectStore) Remove(ctx context.Context, objectPath string) error {
	delete(f.objects, objectPath)
	return nil
}

type fakeMediaStore struct {
	records map[string]storage.MediaRecord
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{records: make(map[string]storage.MediaRecord)}
}

func (f *fakeMediaStore) PutMedia(ctx context.Context, record storage.MediaRecord) error {
	f.records[record.ID] = record
	return nil
}

func (f *fakeMediaStore) GetMedia(ctx context.Context, id string) (storage.MediaRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return storage.MediaRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeMediaStore) ListMedia(ctx context.Context) ([]storage.MediaRecord, error) {
	var records []storage.MediaRecord
	for _, record := range f.records {
		records = append(records, record)
	}
	return records, nil
}

func (f *fakeMediaStore) DeleteMedia(ctx context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func newTestMediaService(objects *fakeObjectStore, store *fakeMediaStore) *Service {
	service := NewService(objects, store)
	service.now = func() time.Time { return time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) }
	counter := 0
	service.newID = func() (string, error) {
		counter++
		return fmt.Sprintf("media-%d", counter), nil
	}
	return service
}

func TestUploadPlacesObjectByKindAndMonth(t *testing.T) {
	objects := newFakeObjectStore()
	store := newFakeMediaStore()
	service := newTestMediaService(objects, store)

	uploaded, err := service.Upload(t.Context(), UploadInput{
		Filename:    "Cover Photo.JPG",
		ContentType: "image/jpeg",
		SizeBytes:   4,
		Body:        strings.NewReader("data"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if uploaded.Path != "image/2026/03/media-1.jpg" {
		t.Fatalf("unexpected path %q", uploaded.Path)
	}
	if uploaded.URL != "https://cdn.example.com/image/2026/03/media-1.jpg" {
		t.Fatalf("unexpected url %q", uploaded.URL)
	}
	if uploaded.Kind != KindImage {
		t.Fatalf("unexpected kind %q", uploaded.Kind)
	}
	if string(objects.objects[uploaded.Path]) != "data" {
		t.Fatal("object bytes were not stored")
	}
	if _, err := service.Get(t.Context(), uploaded.ID); err != nil {
		t.Fatalf("get after upload: %v", err)
	}
}

func TestUploadValidation(t *testing.T) {
	service := newTestMediaService(newFakeObjectStore(), newFakeMediaStore())

	if _, err := service.Upload(t.Context(), UploadInput{Filename: "", Body: strings.NewReader("x")}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input for blank filename, got %v", err)
	}
	if _, err := service.Upload(t.Context(), UploadInput{Filename: "a.txt"}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input for nil body, got %v", err)
	}
}

func TestUploadObjectStoreFailure(t *testing.T) {
	objects := newFakeObjectStore()
	objects.putErr = fmt.Errorf("connection refused")
	store := newFakeMediaStore()
	service := newTestMediaService(objects, store)

	_, err := service.Upload(t.Context(), UploadInput{
		Filename: "a.txt",
		Body:     strings.NewReader("x"),
	})
	if !apperrors.IsKind(err, apperrors.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatal("no library record should exist after a failed upload")
	}
}

func TestDeleteRemovesObjectAndRecord(t *testing.T) {
	objects := newFakeObjectStore()
	store := newFakeMediaStore()
	service := newTestMediaService(objects, store)

	uploaded, err := service.Upload(t.Context(), UploadInput{
		Filename: "doc.pdf",
		Body:     strings.NewReader("pdf"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := service.Delete(t.Context(), uploaded.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := objects.objects[uploaded.Path]; ok {
		t.Fatal("object should be removed")
	}
	if err := service.Delete(t.Context(), uploaded.ID); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
