package query

import (
	"context"
	"errors"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Conversations is the data-access object for the conversations table.
type Conversations struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewConversations binds the DAO to a store connection and change broker.
func NewConversations(db *gorm.DB, broker *live.Broker) *Conversations {
	return &Conversations{db: db, broker: broker}
}

func (q *Conversations) table() string {
	return entity.Conversation{}.TableName()
}

// ByID returns the conversation or nil when absent.
func (q *Conversations) ByID(ctx context.Context, id string) (*entity.Conversation, error) {
	var conversation entity.Conversation
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// ForUser lists conversations the user participates in, most recently active
// first. Participants are a JSON list column, so membership is filtered here
// rather than in SQL.
func (q *Conversations) ForUser(ctx context.Context, userID string) ([]entity.Conversation, error) {
	var conversations []entity.Conversation
	err := q.db.WithContext(ctx).
		Order("last_message_time_ms DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	matched := conversations[:0]
	for _, conversation := range conversations {
		for _, participant := range conversation.ParticipantIDs {
			if participant == userID {
				matched = append(matched, conversation)
				break
			}
		}
	}
	return matched, nil
}

// ObserveForUser is the live counterpart of ForUser.
func (q *Conversations) ObserveForUser(ctx context.Context, userID string) *live.Result[[]entity.Conversation] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.Conversation, error) {
		return q.ForUser(ctx, userID)
	}, q.table())
}

// Insert upserts by primary key.
func (q *Conversations) Insert(ctx context.Context, conversation *entity.Conversation) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(conversation).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Patch applies a targeted field subset to one row.
func (q *Conversations) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	err := q.db.WithContext(ctx).Model(&entity.Conversation{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Delete removes one row; a missing id is a silent no-op.
func (q *Conversations) Delete(ctx context.Context, id string) error {
	err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Conversation{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Messages is the data-access object for the messages table.
type Messages struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewMessages binds the DAO to a store connection and change broker.
func NewMessages(db *gorm.DB, broker *live.Broker) *Messages {
	return &Messages{db: db, broker: broker}
}

func (q *Messages) table() string {
	return entity.Message{}.TableName()
}

// ByID returns the message or nil when absent.
func (q *Messages) ByID(ctx context.Context, id string) (*entity.Message, error) {
	var message entity.Message
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ByConversation lists a conversation's messages oldest first.
func (q *Messages) ByConversation(ctx context.Context, conversationID string) ([]entity.Message, error) {
	var messages []entity.Message
	err := q.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp_ms ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// UnreadCount counts messages in the conversation not yet read by the current
// user (their own messages never count).
func (q *Messages) UnreadCount(ctx context.Context, conversationID, currentUserID string) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&entity.Message{}).
		Where("conversation_id = ? AND is_read = ? AND sender_id <> ?",
			conversationID, false, currentUserID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ObserveByConversation is the live counterpart of ByConversation.
func (q *Messages) ObserveByConversation(ctx context.Context, conversationID string) *live.Result[[]entity.Message] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.Message, error) {
		return q.ByConversation(ctx, conversationID)
	}, q.table())
}

// Insert upserts by primary key.
func (q *Messages) Insert(ctx context.Context, message *entity.Message) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(message).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// MarkConversationRead flags every message in the conversation not sent by the
// current user as read.
func (q *Messages) MarkConversationRead(ctx context.Context, conversationID, currentUserID string) error {
	err := q.db.WithContext(ctx).Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, currentUserID).
		Update("is_read", true).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// DeleteByConversation removes a conversation's messages.
func (q *Messages) DeleteByConversation(ctx context.Context, conversationID string) error {
	err := q.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Delete(&entity.Message{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}
