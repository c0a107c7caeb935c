package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/id"
	"github.com/inkwellhq/inkwell/internal/platform/requestctx"
	"github.com/inkwellhq/inkwell/internal/services/chat/storage"
)

// maxMessageBody bounds a single visitor message.
const maxMessageBody = 2000

// PresenceEvent is the operator availability state delivered to widgets.
type PresenceEvent struct {
	IsOnline  bool      `json:"is_online"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// ChatNotification announces a visitor message to operator consoles.
type ChatNotification struct {
	ChatID       string    `json:"chat_id"`
	VisitorLabel string    `json:"visitor_label"`
	Preview      string    `json:"preview"`
	ReceivedAt   time.Time `json:"received_at"`
}

// Message is one chat message in a visitor conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
}

// Service coordinates presence state and visitor conversations.
type Service struct {
	presence      storage.PresenceStore
	conversations storage.ConversationStore
	hub           *Hub
	now           func() time.Time
	newID         func() (string, error)
}

// NewService builds a chat service over the provided stores and hub.
func NewService(presence storage.PresenceStore, conversations storage.ConversationStore, hub *Hub) *Service {
	return &Service{
		presence:      presence,
		conversations: conversations,
		hub:           hub,
		now:           time.Now,
		newID:         id.NewID,
	}
}

// Presence reports the current operator availability.
func (s *Service) Presence(ctx context.Context) (PresenceEvent, error) {
	record, err := s.presence.GetPresence(ctx)
	if err != nil {
		return PresenceEvent{}, apperrors.Wrap(apperrors.KindUnknown, "load presence", err)
	}
	return PresenceEvent{IsOnline: record.IsOnline, UpdatedAt: record.UpdatedAt}, nil
}

// SetPresence toggles operator availability. The caller must be an
// authenticated operator; the change is persisted before it is announced so
// reconnecting widgets converge on the stored state.
func (s *Service) SetPresence(ctx context.Context, online bool) (PresenceEvent, error) {
	operatorID := requestctx.OperatorIDFromContext(ctx)
	if operatorID == "" {
		return PresenceEvent{}, apperrors.E(apperrors.KindUnauthorized, "operator authentication required")
	}

	record := storage.PresenceRecord{
		IsOnline:  online,
		UpdatedAt: s.now().UTC(),
		UpdatedBy: operatorID,
	}
	if err := s.presence.SetPresence(ctx, record); err != nil {
		return PresenceEvent{}, apperrors.Wrap(apperrors.KindUnknown, "store presence", err)
	}

	event := PresenceEvent{IsOnline: record.IsOnline, UpdatedAt: record.UpdatedAt}
	if err := s.hub.Publish(TopicPresence, FrameTypePresence, event); err != nil {
		return PresenceEvent{}, apperrors.Wrap(apperrors.KindUnknown, "announce presence", err)
	}
	return event, nil
}

// SubmitVisitorMessage records a visitor message, creating the visitor's
// conversation on first contact, and announces it to operator consoles.
func (s *Service) SubmitVisitorMessage(ctx context.Context, visitorID, body string) (Message, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return Message{}, apperrors.E(apperrors.KindInvalidInput, "visitor id is required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, apperrors.E(apperrors.KindInvalidInput, "message body is required")
	}
	if len(body) > maxMessageBody {
		return Message{}, apperrors.E(apperrors.KindInvalidInput, "message body is too long")
	}

	conversation, err := s.conversationForVisitor(ctx, visitorID)
	if err != nil {
		return Message{}, err
	}

	messageID, err := s.newID()
	if err != nil {
		return Message{}, apperrors.Wrap(apperrors.KindUnknown, "generate message id", err)
	}
	record := storage.MessageRecord{
		ID:             messageID,
		ConversationID: conversation.ID,
		Sender:         storage.SenderVisitor,
		Body:           body,
		SentAt:         s.now().UTC(),
	}
	if err := s.conversations.PutMessage(ctx, record); err != nil {
		return Message{}, apperrors.Wrap(apperrors.KindUnknown, "store message", err)
	}

	notification := ChatNotification{
		ChatID:       conversation.ID,
		VisitorLabel: conversation.VisitorLabel,
		Preview:      preview(body),
		ReceivedAt:   record.SentAt,
	}
	if err := s.hub.Publish(TopicChat, FrameTypeChatNotification, notification); err != nil {
		return Message{}, apperrors.Wrap(apperrors.KindUnknown, "announce message", err)
	}

	return Message{
		ID:             record.ID,
		ConversationID: record.ConversationID,
		Sender:         record.Sender,
		Body:           record.Body,
		SentAt:         record.SentAt,
	}, nil
}

// ConversationHistory returns a visitor's messages, oldest first. A visitor
// without a conversation gets an empty history rather than an error.
func (s *Service) ConversationHistory(ctx context.Context, visitorID string, limit int) ([]Message, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, apperrors.E(apperrors.KindInvalidInput, "visitor id is required")
	}

	conversation, err := s.conversations.GetConversationByVisitor(ctx, visitorID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "load conversation", err)
	}

	records, err := s.conversations.ListMessages(ctx, conversation.ID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "load messages", err)
	}

	messages := make([]Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, Message{
			ID:             record.ID,
			ConversationID: record.ConversationID,
			Sender:         record.Sender,
			Body:           record.Body,
			SentAt:         record.SentAt,
		})
	}
	return messages, nil
}

func (s *Service) conversationForVisitor(ctx context.Context, visitorID string) (storage.ConversationRecord, error) {
	conversation, err := s.conversations.GetConversationByVisitor(ctx, visitorID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.ConversationRecord{}, apperrors.Wrap(apperrors.KindUnknown, "load conversation", err)
	}

	conversationID, err := s.newID()
	if err != nil {
		return storage.ConversationRecord{}, apperrors.Wrap(apperrors.KindUnknown, "generate conversation id", err)
	}
	created := storage.ConversationRecord{
		ID:           conversationID,
		VisitorID:    visitorID,
		VisitorLabel: visitorLabel(visitorID),
		CreatedAt:    s.now().UTC(),
	}
	err = s.conversations.PutConversation(ctx, created)
	if errors.Is(err, storage.ErrConflict) {
		// Lost a create race; the winner's row is authoritative.
		conversation, err = s.conversations.GetConversationByVisitor(ctx, visitorID)
		if err != nil {
			return storage.ConversationRecord{}, apperrors.Wrap(apperrors.KindUnknown, "load conversation after conflict", err)
		}
		return conversation, nil
	}
	if err != nil {
		return storage.ConversationRecord{}, apperrors.Wrap(apperrors.KindUnknown, "create conversation", err)
	}
	return created, nil
}

func visitorLabel(visitorID string) string {
	short := visitorID
	if idx := strings.IndexByte(short, '-'); idx > 0 {
		short = short[:idx]
	}
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Visitor %s", short)
}

func preview(body string) string {
	const max = 120
	if len(body) <= max {
		return body
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}
