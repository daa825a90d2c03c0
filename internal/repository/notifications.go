package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"github.com/mprlab/places/internal/query"
	"go.uber.org/zap"
)

const (
	opNotifGet    = "notifications.get"
	opNotifCreate = "notifications.create"
	opNotifPatch  = "notifications.patch"
	opNotifDelete = "notifications.delete"

	relatedTypeTravelCard = "travel_card"
	retentionDays         = 30
)

// NotificationsConfig describes the dependencies of the notification
// repository.
type NotificationsConfig struct {
	Queries    *query.Notifications
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Notifications manages the notification inbox and provides the fan-out
// helpers other repositories call when an action targets somebody else's
// content.
type Notifications struct {
	queries *query.Notifications
	ids     IDProvider
	clock   func() time.Time
	logger  *zap.Logger
}

// NewNotifications constructs the notification repository.
func NewNotifications(cfg NotificationsConfig) (*Notifications, error) {
	if cfg.Queries == nil {
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
	return &Notifications{queries: cfg.Queries, ids: ids, clock: clock, logger: logger}, nil
}

// ByUser lists a recipient's notifications, most recent first.
func (r *Notifications) ByUser(ctx context.Context, userID string) ([]entity.Notification, error) {
	notifications, err := r.queries.ByUser(ctx, userID)
	if err != nil {
		logFailure(r.logger, opNotifGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opNotifGet, "query_failed", err)
	}
	return notifications, nil
}

// Today lists notifications created since local midnight.
func (r *Notifications) Today(ctx context.Context, userID string) ([]entity.Notification, error) {
	start := midnight(r.clock())
	return r.between(ctx, userID, start, start.AddDate(0, 0, 1))
}

// Yesterday lists notifications created during the previous local day.
func (r *Notifications) Yesterday(ctx context.Context, userID string) ([]entity.Notification, error) {
	end := midnight(r.clock())
	return r.between(ctx, userID, end.AddDate(0, 0, -1), end)
}

func (r *Notifications) between(ctx context.Context, userID string, from, to time.Time) ([]entity.Notification, error) {
	notifications, err := r.queries.ByUserBetween(ctx, userID, from, to)
	if err != nil {
		logFailure(r.logger, opNotifGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opNotifGet, "query_failed", err)
	}
	return notifications, nil
}

func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// ObserveByUser yields a recipient's notifications live.
func (r *Notifications) ObserveByUser(ctx context.Context, userID string) *live.Result[[]entity.Notification] {
	return r.queries.ObserveByUser(ctx, userID)
}

// ObserveUnreadCount yields the unread badge count live.
func (r *Notifications) ObserveUnreadCount(ctx context.Context, userID string) *live.Result[int64] {
	return r.queries.ObserveUnreadCount(ctx, userID)
}

// MarkRead flags one notification as read.
func (r *Notifications) MarkRead(ctx context.Context, id string) error {
	if err := r.queries.Patch(ctx, id, map[string]interface{}{"is_read": true}); err != nil {
		logFailure(r.logger, opNotifPatch, "write_failed", err, zap.String("notification_id", id))
		return newStorageError(opNotifPatch, "write_failed", err)
	}
	return nil
}

// MarkAllRead flags every notification of the recipient as read.
func (r *Notifications) MarkAllRead(ctx context.Context, userID string) error {
	err := r.queries.PatchByUser(ctx, userID, map[string]interface{}{"is_read": true})
	if err != nil {
		logFailure(r.logger, opNotifPatch, "write_failed", err, zap.String("user_id", userID))
		return newStorageError(opNotifPatch, "write_failed", err)
	}
	return nil
}

// DeleteByUser clears a recipient's inbox.
func (r *Notifications) DeleteByUser(ctx context.Context, userID string) error {
	if err := r.queries.DeleteByUser(ctx, userID); err != nil {
		logFailure(r.logger, opNotifDelete, "write_failed", err, zap.String("user_id", userID))
		return newStorageError(opNotifDelete, "write_failed", err)
	}
	return nil
}

// DeleteOld prunes notifications older than the retention window.
func (r *Notifications) DeleteOld(ctx context.Context) error {
	cutoff := r.clock().AddDate(0, 0, -retentionDays)
	if err := r.queries.DeleteOlderThan(ctx, cutoff); err != nil {
		logFailure(r.logger, opNotifDelete, "write_failed", err)
		return newStorageError(opNotifDelete, "write_failed", err)
	}
	return nil
}

// CreateLike records that actor liked the recipient's card.
func (r *Notifications) CreateLike(ctx context.Context, recipientID string, actor *entity.User, travelCardID string) error {
	return r.create(ctx, entity.Notification{
		UserID:            recipientID,
		FromUserID:        actor.ID,
		Type:              entity.NotificationLike,
		Title:             "New Like",
		Message:           fmt.Sprintf("%s liked your post", actor.DisplayName),
		RelatedEntityID:   travelCardID,
		RelatedEntityType: relatedTypeTravelCard,
		ImageURL:          actor.ProfileImageURL,
	})
}

// CreateComment records that actor commented on the recipient's card.
func (r *Notifications) CreateComment(ctx context.Context, recipientID string, actor *entity.User, travelCardID string) error {
	return r.create(ctx, entity.Notification{
		UserID:            recipientID,
		FromUserID:        actor.ID,
		Type:              entity.NotificationComment,
		Title:             "New Comment",
		Message:           fmt.Sprintf("%s commented on your post", actor.DisplayName),
		RelatedEntityID:   travelCardID,
		RelatedEntityType: relatedTypeTravelCard,
		ImageURL:          actor.ProfileImageURL,
	})
}

// CreateFollow records that actor started following the recipient.
func (r *Notifications) CreateFollow(ctx context.Context, recipientID string, actor *entity.User) error {
	return r.create(ctx, entity.Notification{
		UserID:     recipientID,
		FromUserID: actor.ID,
		Type:       entity.NotificationFollow,
		Title:      "New Follower",
		Message:    fmt.Sprintf("%s started following you", actor.DisplayName),
		ImageURL:   actor.ProfileImageURL,
	})
}

func (r *Notifications) create(ctx context.Context, notification entity.Notification) error {
	id, err := r.ids.NewID()
	if err != nil {
		logFailure(r.logger, opNotifCreate, "id_generation_failed", err)
		return newStorageError(opNotifCreate, "id_generation_failed", err)
	}
	notification.ID = id
	notification.CreatedAtMs = r.clock().UnixMilli()
	if err := r.queries.Insert(ctx, &notification); err != nil {
		logFailure(r.logger, opNotifCreate, "write_failed", err,
			zap.String("user_id", notification.UserID),
			zap.String("type", string(notification.Type)))
		return newStorageError(opNotifCreate, "write_failed", err)
	}
	return nil
}
