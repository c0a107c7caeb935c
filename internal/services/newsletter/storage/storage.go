// Package storage defines persistence contracts for newsletter subscribers.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested subscriber does not exist.
var ErrNotFound = errors.New("record not found")

// SubscriberRecord is one stored newsletter subscriber.
type SubscriberRecord struct {
	Email        string
	Active       bool
	SubscribedAt time.Time
}

// SubscriberStore persists newsletter subscribers keyed by email.
type SubscriberStore interface {
	PutSubscriber(ctx context.Context, record SubscriberRecord) error
	GetSubscriber(ctx context.Context, email string) (SubscriberRecord, error)
	ListSubscribers(ctx context.Context, activeOnly bool) ([]SubscriberRecord, error)
}
