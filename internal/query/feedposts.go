package query

import (
	"context"
	"errors"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedPosts is the data-access object for the feed_posts table.
type FeedPosts struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewFeedPosts binds the DAO to a store connection and change broker.
func NewFeedPosts(db *gorm.DB, broker *live.Broker) *FeedPosts {
	return &FeedPosts{db: db, broker: broker}
}

// Table exposes the table name for callers composing their own live queries.
func (q *FeedPosts) Table() string {
	return entity.FeedPost{}.TableName()
}

// ByID returns the post or nil when absent.
func (q *FeedPosts) ByID(ctx context.Context, id string) (*entity.FeedPost, error) {
	var post entity.FeedPost
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// All lists every post, most recent first.
func (q *FeedPosts) All(ctx context.Context) ([]entity.FeedPost, error) {
	var posts []entity.FeedPost
	if err := q.db.WithContext(ctx).Order("created_at_ms DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// ByUser lists a user's posts, most recent first.
func (q *FeedPosts) ByUser(ctx context.Context, userID string) ([]entity.FeedPost, error) {
	var posts []entity.FeedPost
	err := q.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at_ms DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Bookmarked lists bookmarked posts, most recent first.
func (q *FeedPosts) Bookmarked(ctx context.Context) ([]entity.FeedPost, error) {
	var posts []entity.FeedPost
	err := q.db.WithContext(ctx).
		Where("is_bookmarked = ?", true).
		Order("created_at_ms DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ObserveAll is the live counterpart of All.
func (q *FeedPosts) ObserveAll(ctx context.Context) *live.Result[[]entity.FeedPost] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.FeedPost, error) {
		return q.All(ctx)
	}, q.Table())
}

// ObserveBookmarked is the live counterpart of Bookmarked.
func (q *FeedPosts) ObserveBookmarked(ctx context.Context) *live.Result[[]entity.FeedPost] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.FeedPost, error) {
		return q.Bookmarked(ctx)
	}, q.Table())
}

// Insert upserts by primary key.
func (q *FeedPosts) Insert(ctx context.Context, post *entity.FeedPost) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(post).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// Update replaces all fields; an absent id behaves as an insert.
func (q *FeedPosts) Update(ctx context.Context, post *entity.FeedPost) error {
	if err := q.db.WithContext(ctx).Save(post).Error; err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// Patch applies a targeted field subset to one row.
func (q *FeedPosts) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	err := q.db.WithContext(ctx).Model(&entity.FeedPost{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// Delete removes one row; a missing id is a silent no-op.
func (q *FeedPosts) Delete(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.FeedPost{}).Error; err != nil {
		return err
	}
	q.broker.Publish(q.Table())
	return nil
}

// CountByIDs reports how many of the given ids already exist.
func (q *FeedPosts) CountByIDs(ctx context.Context, ids []string) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&entity.FeedPost{}).
		Where("id IN ?", ids).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
