// Package storage defines persistence contracts for the live-chat service.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// PresenceRecord stores the singleton operator availability row.
type PresenceRecord struct {
	IsOnline  bool
	UpdatedAt time.Time
	UpdatedBy string
}

// BlockedIPRecord stores one moderated address, unique by address.
type BlockedIPRecord struct {
	Address   string
	CreatedAt time.Time
	CreatedBy string
}

// ConversationRecord stores one visitor conversation.
type ConversationRecord struct {
	ID           string
	VisitorID    string
	VisitorLabel string
	CreatedAt    time.Time
}

// MessageRecord stores one chat message inside a conversation.
type MessageRecord struct {
	ID             string
	ConversationID string
	Sender         string
	Body           string
	SentAt         time.Time
}

// Message sender values.
const (
	SenderVisitor  = "visitor"
	SenderOperator = "operator"
)

// PresenceStore persists the operator availability singleton.
type PresenceStore interface {
	GetPresence(ctx context.Context) (PresenceRecord, error)
	SetPresence(ctx context.Context, record PresenceRecord) error
}

// BlocklistStore persists moderated addresses.
type BlocklistStore interface {
	PutBlockedIP(ctx context.Context, record BlockedIPRecord) error
	DeleteBlockedIP(ctx context.Context, address string) error
	GetBlockedIP(ctx context.Context, address string) (BlockedIPRecord, error)
	ListBlockedIPs(ctx context.Context) ([]BlockedIPRecord, error)
}

// ConversationStore persists visitor conversations and their messages.
type ConversationStore interface {
	PutConversation(ctx context.Context, record ConversationRecord) error
	GetConversationByVisitor(ctx context.Context, visitorID string) (ConversationRecord, error)
	PutMessage(ctx context.Context, record MessageRecord) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error)
}
