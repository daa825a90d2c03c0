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

// Activities is the data-access object for the activities table. List reads
// order by the activity's own calendar date ascending.
type Activities struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewActivities binds the DAO to a store connection and change broker.
func NewActivities(db *gorm.DB, broker *live.Broker) *Activities {
	return &Activities{db: db, broker: broker}
}

func (q *Activities) table() string {
	return entity.Activity{}.TableName()
}

// ByID returns the activity or nil when absent.
func (q *Activities) ByID(ctx context.Context, id string) (*entity.Activity, error) {
	var activity entity.Activity
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// ByUser lists a user's activities, earliest date first.
func (q *Activities) ByUser(ctx context.Context, userID string) ([]entity.Activity, error) {
	var activities []entity.Activity
	err := q.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_ms ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// ByUserBetween lists a user's activities dated inside [start, end].
func (q *Activities) ByUserBetween(ctx context.Context, userID string, start, end time.Time) ([]entity.Activity, error) {
	var activities []entity.Activity
	err := q.db.WithContext(ctx).
		Where("user_id = ? AND date_ms >= ? AND date_ms <= ?",
			userID, start.UnixMilli(), end.UnixMilli()).
		Order("date_ms ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// Pending lists a user's not-yet-completed activities, earliest date first.
func (q *Activities) Pending(ctx context.Context, userID string) ([]entity.Activity, error) {
	var activities []entity.Activity
	err := q.db.WithContext(ctx).
		Where("user_id = ? AND is_completed = ?", userID, false).
		Order("date_ms ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// ByCategory lists a user's activities of one category, earliest date first.
func (q *Activities) ByCategory(ctx context.Context, userID string, category entity.ActivityCategory) ([]entity.Activity, error) {
	var activities []entity.Activity
	err := q.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		Order("date_ms ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// ObserveByUser is the live counterpart of ByUser.
func (q *Activities) ObserveByUser(ctx context.Context, userID string) *live.Result[[]entity.Activity] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.Activity, error) {
		return q.ByUser(ctx, userID)
	}, q.table())
}

// ObservePending is the live counterpart of Pending.
func (q *Activities) ObservePending(ctx context.Context, userID string) *live.Result[[]entity.Activity] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.Activity, error) {
		return q.Pending(ctx, userID)
	}, q.table())
}

// Insert upserts by primary key.
func (q *Activities) Insert(ctx context.Context, activity *entity.Activity) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(activity).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Update replaces all fields; an absent id behaves as an insert.
func (q *Activities) Update(ctx context.Context, activity *entity.Activity) error {
	if err := q.db.WithContext(ctx).Save(activity).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Patch applies a targeted field subset to one row.
func (q *Activities) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	err := q.db.WithContext(ctx).Model(&entity.Activity{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Delete removes one row; a missing id is a silent no-op.
func (q *Activities) Delete(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Activity{}).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// DeleteByUser removes every activity owned by userID.
func (q *Activities) DeleteByUser(ctx context.Context, userID string) error {
	err := q.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.Activity{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// DeleteOlderThan prunes activities dated before the cutoff.
func (q *Activities) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	err := q.db.WithContext(ctx).
		Where("date_ms < ?", cutoff.UnixMilli()).
		Delete(&entity.Activity{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}
