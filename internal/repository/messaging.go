package repository

import (
	"context"
	"time"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"github.com/mprlab/places/internal/query"
	"go.uber.org/zap"
)

const (
	opMessagingGet    = "messaging.get"
	opMessagingCreate = "messaging.create"
	opMessagingSend   = "messaging.send"
	opMessagingRead   = "messaging.mark_read"
	opMessagingDelete = "messaging.delete"
)

// MessagingConfig describes the dependencies of the messaging repository.
type MessagingConfig struct {
	Conversations *query.Conversations
	Messages      *query.Messages
	IDProvider    IDProvider
	Clock         func() time.Time
	Logger        *zap.Logger
}

// Messaging manages conversations and their messages. Sending a message also
// refreshes the conversation's denormalized last-message envelope; the two
// writes are sequential, not transactional.
type Messaging struct {
	conversations *query.Conversations
	messages      *query.Messages
	ids           IDProvider
	clock         func() time.Time
	logger        *zap.Logger
}

// NewMessaging constructs the messaging repository.
func NewMessaging(cfg MessagingConfig) (*Messaging, error) {
	if cfg.Conversations == nil || cfg.Messages == nil {
		return nil, errMissingQueries
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Messaging{
		conversations: cfg.Conversations,
		messages:      cfg.Messages,
		ids:           ids,
		clock:         clock,
		logger:        logger,
	}, nil
}

// ConversationByID returns the conversation or nil when absent.
func (r *Messaging) ConversationByID(ctx context.Context, id string) (*entity.Conversation, error) {
	conversation, err := r.conversations.ByID(ctx, id)
	if err != nil {
		logFailure(r.logger, opMessagingGet, "query_failed", err, zap.String("conversation_id", id))
		return nil, newStorageError(opMessagingGet, "query_failed", err)
	}
	return conversation, nil
}

// ConversationsForUser lists a user's conversations, most recently active
// first.
func (r *Messaging) ConversationsForUser(ctx context.Context, userID string) ([]entity.Conversation, error) {
	conversations, err := r.conversations.ForUser(ctx, userID)
	if err != nil {
		logFailure(r.logger, opMessagingGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opMessagingGet, "query_failed", err)
	}
	return conversations, nil
}

// ObserveConversations yields a user's conversation list live.
func (r *Messaging) ObserveConversations(ctx context.Context, userID string) *live.Result[[]entity.Conversation] {
	return r.conversations.ObserveForUser(ctx, userID)
}

// MessagesIn lists a conversation's messages oldest first.
func (r *Messaging) MessagesIn(ctx context.Context, conversationID string) ([]entity.Message, error) {
	messages, err := r.messages.ByConversation(ctx, conversationID)
	if err != nil {
		logFailure(r.logger, opMessagingGet, "query_failed", err, zap.String("conversation_id", conversationID))
		return nil, newStorageError(opMessagingGet, "query_failed", err)
	}
	return messages, nil
}

// ObserveMessages yields a conversation's messages live.
func (r *Messaging) ObserveMessages(ctx context.Context, conversationID string) *live.Result[[]entity.Message] {
	return r.messages.ObserveByConversation(ctx, conversationID)
}

// UnreadCount counts the current user's unread messages in a conversation.
func (r *Messaging) UnreadCount(ctx context.Context, conversationID, currentUserID string) (int64, error) {
	count, err := r.messages.UnreadCount(ctx, conversationID, currentUserID)
	if err != nil {
		logFailure(r.logger, opMessagingGet, "query_failed", err, zap.String("conversation_id", conversationID))
		return 0, newStorageError(opMessagingGet, "query_failed", err)
	}
	return count, nil
}

// CreateConversation starts a conversation between the given participants.
func (r *Messaging) CreateConversation(ctx context.Context, participantIDs []string) (*entity.Conversation, error) {
	if len(participantIDs) < 2 {
		return nil, newValidationError(opMessagingCreate, "participants", nil)
	}
	id, err := r.ids.NewID()
	if err != nil {
		logFailure(r.logger, opMessagingCreate, "id_generation_failed", err)
		return nil, newStorageError(opMessagingCreate, "id_generation_failed", err)
	}
	now := r.clock().UnixMilli()
	conversation := entity.Conversation{
		ID:                id,
		ParticipantIDs:    participantIDs,
		LastMessageTimeMs: now,
		IsRead:            true,
		CreatedAtMs:       now,
	}
	if err := r.conversations.Insert(ctx, &conversation); err != nil {
		logFailure(r.logger, opMessagingCreate, "write_failed", err)
		return nil, newStorageError(opMessagingCreate, "write_failed", err)
	}
	return &conversation, nil
}

// SendInput is the caller-supplied portion of a new message.
type SendInput struct {
	ConversationID string
	SenderID       string
	Content        string
	MessageType    entity.MessageType
	ImageURL       string
	TravelCardID   string
}

// Send inserts the message and then refreshes the conversation envelope
// (last message, time, sender, unread flag). A failure on the second write
// leaves the message committed.
func (r *Messaging) Send(ctx context.Context, input SendInput) (*entity.Message, error) {
	id, err := r.ids.NewID()
	if err != nil {
		logFailure(r.logger, opMessagingSend, "id_generation_failed", err)
		return nil, newStorageError(opMessagingSend, "id_generation_failed", err)
	}
	messageType := input.MessageType
	if messageType == "" {
		messageType = entity.MessageText
	}
	now := r.clock().UnixMilli()
	message := entity.Message{
		ID:             id,
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Content:        input.Content,
		MessageType:    messageType,
		TimestampMs:    now,
		ImageURL:       input.ImageURL,
		TravelCardID:   input.TravelCardID,
	}
	if err := r.messages.Insert(ctx, &message); err != nil {
		logFailure(r.logger, opMessagingSend, "write_failed", err, zap.String("conversation_id", input.ConversationID))
		return nil, newStorageError(opMessagingSend, "write_failed", err)
	}

	err = r.conversations.Patch(ctx, input.ConversationID, map[string]interface{}{
		"last_message":           input.Content,
		"last_message_time_ms":   now,
		"last_message_sender_id": input.SenderID,
		"is_read":                false,
	})
	if err != nil {
		logFailure(r.logger, opMessagingSend, "envelope_failed", err, zap.String("conversation_id", input.ConversationID))
		return &message, newStorageError(opMessagingSend, "envelope_failed", err)
	}
	return &message, nil
}

// MarkConversationRead flags incoming messages as read and clears the
// conversation's unread flag.
func (r *Messaging) MarkConversationRead(ctx context.Context, conversationID, currentUserID string) error {
	if err := r.messages.MarkConversationRead(ctx, conversationID, currentUserID); err != nil {
		logFailure(r.logger, opMessagingRead, "write_failed", err, zap.String("conversation_id", conversationID))
		return newStorageError(opMessagingRead, "write_failed", err)
	}
	err := r.conversations.Patch(ctx, conversationID, map[string]interface{}{"is_read": true})
	if err != nil {
		logFailure(r.logger, opMessagingRead, "write_failed", err, zap.String("conversation_id", conversationID))
		return newStorageError(opMessagingRead, "write_failed", err)
	}
	return nil
}

// DeleteConversation removes a conversation and its messages.
func (r *Messaging) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := r.messages.DeleteByConversation(ctx, conversationID); err != nil {
		logFailure(r.logger, opMessagingDelete, "write_failed", err, zap.String("conversation_id", conversationID))
		return newStorageError(opMessagingDelete, "write_failed", err)
	}
	if err := r.conversations.Delete(ctx, conversationID); err != nil {
		logFailure(r.logger, opMessagingDelete, "write_failed", err, zap.String("conversation_id", conversationID))
		return newStorageError(opMessagingDelete, "write_failed", err)
	}
	return nil
}
