// Package newsletter manages email subscriptions for the blog digest.
package newsletter

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/services/newsletter/storage"
)

// Subscriber is one newsletter subscriber.
type Subscriber struct {
	Email        string    `json:"email"`
	Active       bool      `json:"active"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// Service manages newsletter subscriptions.
type Service struct {
	store storage.SubscriberStore
	now   func() time.Time
}

// NewService builds a newsletter service over the given store.
func NewService(store storage.SubscriberStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Subscribe adds an email to the newsletter. Subscribing an address that is
// already active is a no-op success, so the public form never leaks whether
// an address is known.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	record := storage.SubscriberRecord{
		Email:        normalized,
		Active:       true,
		SubscribedAt: s.now().UTC(),
	}
	if err := s.store.PutSubscriber(ctx, record); err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "store subscriber", err)
	}
	return nil
}

// Unsubscribe marks an address inactive. Unknown addresses return not found.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	record, err := s.store.GetSubscriber(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.E(apperrors.KindNotFound, "subscriber not found")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "load subscriber", err)
	}
	record.Active = false
	if err := s.store.PutSubscriber(ctx, record); err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "store subscriber", err)
	}
	return nil
}

// ListActive returns all active subscribers, newest first.
func (s *Service) ListActive(ctx context.Context) ([]Subscriber, error) {
	records, err := s.store.ListSubscribers(ctx, true)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list subscribers", err)
	}
	subscribers := make([]Subscriber, 0, len(records))
	for _, record := range records {
		subscribers = append(subscribers, Subscriber(record))
	}
	return subscribers, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.E(apperrors.KindInvalidInput, "email is required")
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", apperrors.E(apperrors.KindInvalidInput, "email address is invalid")
	}
	return email, nil
}
