package query

import (
	"context"
	"errors"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublishedActivities is the data-access object for the published_activities
// table.
type PublishedActivities struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewPublishedActivities binds the DAO to a store connection and change broker.
func NewPublishedActivities(db *gorm.DB, broker *live.Broker) *PublishedActivities {
	return &PublishedActivities{db: db, broker: broker}
}

// Table exposes the table name for callers composing their own live queries.
func (q *PublishedActivities) Table() string {
	return entity.PublishedActivity{}.TableName()
}

// ByID returns the published activity or nil when absent.
func (q *PublishedActivities) ByID(ctx context.Context, id string) (*entity.PublishedActivity, error) {
	var published entity.PublishedActivity
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&published).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &published, nil
}

// All lists the whole feed, most recent first.
func (q *PublishedActivities) All(ctx context.Context) ([]entity.PublishedActivity, error) {
	var feed []entity.PublishedActivity
	if err := q.db.WithContext(ctx).Order("created_at_ms DESC").Find(&feed).Error; err != nil {
		return nil, err
	}
	return feed, nil
}

// ByUsername lists entries whose denormalized username matches exactly, most
// recent first. Fuzzy profile matching lives in the feed aggregator.
func (q *PublishedActivities) ByUsername(ctx context.Context, username string) ([]entity.PublishedActivity, error) {
	var feed []entity.PublishedActivity
	err := q.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at_ms DESC").
		Find(&feed).Error
	if err != nil {
		return nil, err
	}
	return feed, nil
}

// ObserveAll is the live counterpart of All.
func (q *PublishedActivities) ObserveAll(ctx context.Context) *live.Result[[]entity.PublishedActivity] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.PublishedActivity, error) {
		return q.All(ctx)
	}, q.Table())
}

// Insert upserts by primary key.
func (q *PublishedActivities) Insert(ctx context.Context, published *entity.PublishedActivity) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(published).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// Update replaces all fields; an absent id behaves as an insert.
func (q *PublishedActivities) Update(ctx context.Context, published *entity.PublishedActivity) error {
	if err := q.db.WithContext(ctx).Save(published).Error; err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// Patch applies a targeted field subset to one row.
func (q *PublishedActivities) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	err := q.db.WithContext(ctx).Model(&entity.PublishedActivity{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// Delete removes one row; a missing id is a silent no-op.
func (q *PublishedActivities) Delete(ctx context.Context, id string) error {
	err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.PublishedActivity{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// DeleteAll clears the feed.
func (q *PublishedActivities) DeleteAll(ctx context.Context) error {
	err := q.db.WithContext(ctx).Where("1 = 1").Delete(&entity.PublishedActivity{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// CountByIDs reports how many of the given ids already exist. Seeding uses it
// as its duplicate guard.
func (q *PublishedActivities) CountByIDs(ctx context.Context, ids []string) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&entity.PublishedActivity{}).
		Where("id IN ?", ids).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
