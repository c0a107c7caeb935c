package newsletter

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/services/newsletter/storage"
)

type fakeSubscriberStore struct {
	records map[string]storage.SubscriberRecord
	puts    int
}

func newFakeSubscriberStore() *fakeSubscriberStore {
	return &fakeSubscriberStore{records: make(map[string]storage.SubscriberRecord)}
}

func (f *fakeSubscriberStore) PutSubscriber(ctx context.Context, record storage.SubscriberRecord) error {
	f.puts++
	f.records[record.Email] = record
	return nil
}

func (f *fakeSubscriberStore) GetSubscriber(ctx context.Context, email string) (storage.SubscriberRecord, error) {
	record, ok := f.records[email]
	if !ok {
		return storage.SubscriberRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeSubscriberStore) ListSubscribers(ctx context.Context, activeOnly bool) ([]storage.SubscriberRecord, error) {
	var records []storage.SubscriberRecord
	for _, record := range f.records {
		if activeOnly && !record.Active {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func newTestNewsletter(store storage.SubscriberStore) *Service {
	service := NewService(store)
	service.now = func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }
	return service
}

func TestSubscribeNormalizesEmail(t *testing.T) {
	store := newFakeSubscriberStore()
	service := newTestNewsletter(store)

	if err := service.Subscribe(context.Background(), "  Reader@Example.COM "); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	record, ok := store.records["reader@example.com"]
	if !ok {
		t.Fatalf("expected lowercased key, have %v", store.records)
	}
	if !record.Active {
		t.Fatal("expected active subscriber")
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	store := newFakeSubscriberStore()
	service := newTestNewsletter(store)
	ctx := context.Background()

	if err := service.Subscribe(ctx, "reader@example.com"); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	if err := service.Subscribe(ctx, "reader@example.com"); err != nil {
		t.Fatalf("second subscribe should be a no-op success: %v", err)
	}

	active, err := service.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active subscriber, got %d", len(active))
	}
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	service := newTestNewsletter(newFakeSubscriberStore())
	for _, email := range []string{"", "   ", "not-an-email", "a@b@c", "Reader Name <reader@example.com>"} {
		if err := service.Subscribe(context.Background(), email); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
			t.Fatalf("expected invalid input for %q, got %v", email, err)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	store := newFakeSubscriberStore()
	service := newTestNewsletter(store)
	ctx := context.Background()

	if err := service.Unsubscribe(ctx, "reader@example.com"); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found for unknown address, got %v", err)
	}

	if err := service.Subscribe(ctx, "reader@example.com"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := service.Unsubscribe(ctx, "reader@example.com"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	active, err := service.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active subscribers, got %v", active)
	}

	// Re-subscribing reactivates.
	if err := service.Subscribe(ctx, "reader@example.com"); err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	active, err = service.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active after re-subscribe: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected reactivated subscriber, got %v", active)
	}
}
