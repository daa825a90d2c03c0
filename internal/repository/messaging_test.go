package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/query"
)

func newMessagingFixture(t *testing.T) (*Messaging, *query.Conversations, *query.Messages, time.Time) {
	t.Helper()
	db, broker := newTestStore(t)
	conversationQueries := query.NewConversations(db, broker)
	messageQueries := query.NewMessages(db, broker)
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	messaging, err := NewMessaging(MessagingConfig{
		Conversations: conversationQueries,
		Messages:      messageQueries,
		IDProvider:    &sequentialIDs{},
		Clock:         fixedClock(now),
	})
	if err != nil {
		t.Fatalf("messaging: %v", err)
	}
	return messaging, conversationQueries, messageQueries, now
}

func TestCreateConversationRequiresTwoParticipants(t *testing.T) {
	messaging, _, _, _ := newMessagingFixture(t)

	_, err := messaging.CreateConversation(context.Background(), []string{"ava"})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendRefreshesConversationEnvelope(t *testing.T) {
	messaging, conversationQueries, messageQueries, now := newMessagingFixture(t)
	ctx := context.Background()

	conversation, err := messaging.CreateConversation(ctx, []string{"ava", "ben"})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if !conversation.IsRead {
		t.Fatalf("new conversation should start read")
	}

	message, err := messaging.Send(ctx, SendInput{
		ConversationID: conversation.ID,
		SenderID:       "ava",
		Content:        "see you at the fort",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if message.MessageType != entity.MessageText {
		t.Fatalf("expected default text type, got %q", message.MessageType)
	}
	if message.TimestampMs != now.UnixMilli() {
		t.Fatalf("expected timestamp %d, got %d", now.UnixMilli(), message.TimestampMs)
	}

	stored, err := conversationQueries.ByID(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.LastMessage != "see you at the fort" || stored.LastMessageSenderID != "ava" {
		t.Fatalf("envelope not refreshed: %#v", stored)
	}
	if stored.IsRead {
		t.Fatalf("expected conversation flagged unread after send")
	}

	unread, err := messaging.UnreadCount(ctx, conversation.ID, "ben")
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if unread != 1 {
		t.Fatalf("expected 1 unread for ben, got %d", unread)
	}

	if err := messaging.MarkConversationRead(ctx, conversation.ID, "ben"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	stored, err = conversationQueries.ByID(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !stored.IsRead {
		t.Fatalf("expected conversation flagged read")
	}
	unread, err = messaging.UnreadCount(ctx, conversation.ID, "ben")
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread after mark, got %d", unread)
	}

	thread, err := messageQueries.ByConversation(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread) != 1 {
		t.Fatalf("expected single message, got %d", len(thread))
	}
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	messaging, conversationQueries, messageQueries, _ := newMessagingFixture(t)
	ctx := context.Background()

	conversation, err := messaging.CreateConversation(ctx, []string{"ava", "ben"})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, err := messaging.Send(ctx, SendInput{ConversationID: conversation.ID, SenderID: "ava", Content: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := messaging.DeleteConversation(ctx, conversation.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	gone, err := conversationQueries.ByID(ctx, conversation.ID)
	if err != nil || gone != nil {
		t.Fatalf("expected conversation removed, got (%v, %v)", gone, err)
	}
	thread, err := messageQueries.ByConversation(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread) != 0 {
		t.Fatalf("expected messages removed, got %d", len(thread))
	}
}
