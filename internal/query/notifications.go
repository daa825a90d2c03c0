package query

import (
	"context"
	"errors"
	"time"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifications is the data-access object for the notifications table.
type Notifications struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewNotifications binds the DAO to a store connection and change broker.
func NewNotifications(db *gorm.DB, broker *live.Broker) *Notifications {
	return &Notifications{db: db, broker: broker}
}

func (q *Notifications) table() string {
	return entity.Notification{}.TableName()
}

// ByID returns the notification or nil when absent.
func (q *Notifications) ByID(ctx context.Context, id string) (*entity.Notification, error) {
	var notification entity.Notification
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// ByUser lists a recipient's notifications, most recent first.
func (q *Notifications) ByUser(ctx context.Context, userID string) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := q.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at_ms DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// ByUserBetween lists a recipient's notifications created inside [from, to),
// most recent first. Callers use it for the today/yesterday groupings.
func (q *Notifications) ByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := q.db.WithContext(ctx).
		Where("user_id = ? AND created_at_ms >= ? AND created_at_ms < ?",
			userID, from.UnixMilli(), to.UnixMilli()).
		Order("created_at_ms DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount counts unread notifications for a recipient.
func (q *Notifications) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ObserveByUser is the live counterpart of ByUser.
func (q *Notifications) ObserveByUser(ctx context.Context, userID string) *live.Result[[]entity.Notification] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.Notification, error) {
		return q.ByUser(ctx, userID)
	}, q.table())
}

// ObserveUnreadCount is the live counterpart of UnreadCount.
func (q *Notifications) ObserveUnreadCount(ctx context.Context, userID string) *live.Result[int64] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) (int64, error) {
		return q.UnreadCount(ctx, userID)
	}, q.table())
}

// Insert upserts by primary key.
func (q *Notifications) Insert(ctx context.Context, notification *entity.Notification) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(notification).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Patch applies a targeted field subset to one row.
func (q *Notifications) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	err := q.db.WithContext(ctx).Model(&entity.Notification{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// PatchByUser applies a targeted field subset to all of a recipient's rows.
func (q *Notifications) PatchByUser(ctx context.Context, userID string, fields map[string]interface{}) error {
	err := q.db.WithContext(ctx).Model(&entity.Notification{}).Where("user_id = ?", userID).Updates(fields).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Delete removes one row; a missing id is a silent no-op.
func (q *Notifications) Delete(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Notification{}).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// DeleteByUser removes every notification addressed to userID.
func (q *Notifications) DeleteByUser(ctx context.Context, userID string) error {
	err := q.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.Notification{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// DeleteOlderThan prunes notifications created before the cutoff.
func (q *Notifications) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	err := q.db.WithContext(ctx).
		Where("created_at_ms < ?", cutoff.UnixMilli()).
		Delete(&entity.Notification{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}
