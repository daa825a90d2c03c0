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
	opPublishedGet    = "published_activities.get"
	opPublishedWrite  = "published_activities.write"
	opPublishedToggle = "published_activities.toggle"
	opPublishedSeed   = "published_activities.seed"
)

// PublishedActivitiesConfig describes the dependencies of the published feed
// repository.
type PublishedActivitiesConfig struct {
	Queries *query.PublishedActivities
	Clock   func() time.Time
	Logger  *zap.Logger
}

// PublishedActivities manages the denormalized feed. Toggles compute the new
// state from caller-held values, not a re-fetch; concurrent toggles of the
// same entry can race.
type PublishedActivities struct {
	queries *query.PublishedActivities
	clock   func() time.Time
	logger  *zap.Logger
}

// NewPublishedActivities constructs the published feed repository.
func NewPublishedActivities(cfg PublishedActivitiesConfig) (*PublishedActivities, error) {
	if cfg.Queries == nil {
		return nil, errMissingQueries
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishedActivities{queries: cfg.Queries, clock: clock, logger: logger}, nil
}

// ByID returns the entry or nil when absent.
func (r *PublishedActivities) ByID(ctx context.Context, id string) (*entity.PublishedActivity, error) {
	published, err := r.queries.ByID(ctx, id)
	if err != nil {
		logFailure(r.logger, opPublishedGet, "query_failed", err, zap.String("published_id", id))
		return nil, newStorageError(opPublishedGet, "query_failed", err)
	}
	return published, nil
}

// All lists the whole feed, most recent first.
func (r *PublishedActivities) All(ctx context.Context) ([]entity.PublishedActivity, error) {
	feed, err := r.queries.All(ctx)
	if err != nil {
		logFailure(r.logger, opPublishedGet, "query_failed", err)
		return nil, newStorageError(opPublishedGet, "query_failed", err)
	}
	return feed, nil
}

// ObserveAll yields the whole feed live.
func (r *PublishedActivities) ObserveAll(ctx context.Context) *live.Result[[]entity.PublishedActivity] {
	return r.queries.ObserveAll(ctx)
}

// Insert upserts the entry as given.
func (r *PublishedActivities) Insert(ctx context.Context, published *entity.PublishedActivity) error {
	if err := r.queries.Insert(ctx, published); err != nil {
		logFailure(r.logger, opPublishedWrite, "write_failed", err, zap.String("published_id", published.ID))
		return newStorageError(opPublishedWrite, "write_failed", err)
	}
	return nil
}

// Update persists the entry with updatedAt stamped to now.
func (r *PublishedActivities) Update(ctx context.Context, published *entity.PublishedActivity) error {
	stamped := *published
	stamped.UpdatedAtMs = r.clock().UnixMilli()
	if err := r.queries.Update(ctx, &stamped); err != nil {
		logFailure(r.logger, opPublishedWrite, "write_failed", err, zap.String("published_id", published.ID))
		return newStorageError(opPublishedWrite, "write_failed", err)
	}
	return nil
}

// Delete removes one entry. A missing id is a silent no-op.
func (r *PublishedActivities) Delete(ctx context.Context, id string) error {
	if err := r.queries.Delete(ctx, id); err != nil {
		logFailure(r.logger, opPublishedWrite, "write_failed", err, zap.String("published_id", id))
		return newStorageError(opPublishedWrite, "write_failed", err)
	}
	return nil
}

// DeleteAll clears the feed.
func (r *PublishedActivities) DeleteAll(ctx context.Context) error {
	if err := r.queries.DeleteAll(ctx); err != nil {
		logFailure(r.logger, opPublishedWrite, "write_failed", err)
		return newStorageError(opPublishedWrite, "write_failed", err)
	}
	return nil
}

// ToggleLike flips the like state the caller currently sees and moves the
// like count by one, in a single patch of both fields.
func (r *PublishedActivities) ToggleLike(ctx context.Context, id string, currentCount int, currentlyLiked bool) (bool, error) {
	nowLiked := !currentlyLiked
	newCount := currentCount - 1
	if nowLiked {
		newCount = currentCount + 1
	}
	err := r.queries.Patch(ctx, id, map[string]interface{}{
		"like_count": newCount,
		"is_liked":   nowLiked,
	})
	if err != nil {
		logFailure(r.logger, opPublishedToggle, "write_failed", err, zap.String("published_id", id))
		return currentlyLiked, newStorageError(opPublishedToggle, "write_failed", err)
	}
	return nowLiked, nil
}

// ToggleBookmark flips the bookmark flag the caller currently sees. There is
// no bookmark counter on this projection.
func (r *PublishedActivities) ToggleBookmark(ctx context.Context, id string, currentlyBookmarked bool) (bool, error) {
	nowBookmarked := !currentlyBookmarked
	err := r.queries.Patch(ctx, id, map[string]interface{}{"is_bookmarked": nowBookmarked})
	if err != nil {
		logFailure(r.logger, opPublishedToggle, "write_failed", err, zap.String("published_id", id))
		return currentlyBookmarked, newStorageError(opPublishedToggle, "write_failed", err)
	}
	return nowBookmarked, nil
}

// IncrementCommentCount re-reads the entry and bumps its comment counter.
// A missing id is a silent no-op.
func (r *PublishedActivities) IncrementCommentCount(ctx context.Context, id string) error {
	return r.incrementCounter(ctx, id, "comment_count", func(p *entity.PublishedActivity) int {
		return p.CommentCount
	})
}

// IncrementShareCount re-reads the entry and bumps its share counter.
// A missing id is a silent no-op.
func (r *PublishedActivities) IncrementShareCount(ctx context.Context, id string) error {
	return r.incrementCounter(ctx, id, "share_count", func(p *entity.PublishedActivity) int {
		return p.ShareCount
	})
}

func (r *PublishedActivities) incrementCounter(ctx context.Context, id, column string, current func(*entity.PublishedActivity) int) error {
	published, err := r.ByID(ctx, id)
	if err != nil {
		return err
	}
	if published == nil {
		return nil
	}
	err = r.queries.Patch(ctx, id, map[string]interface{}{column: current(published) + 1})
	if err != nil {
		logFailure(r.logger, opPublishedToggle, "write_failed", err, zap.String("published_id", id))
		return newStorageError(opPublishedToggle, "write_failed", err)
	}
	return nil
}

// SeedSampleData inserts the fixed demo feed once. Rows are skipped entirely
// when any seed id already exists, so repeated launches cannot double the
// feed.
func (r *PublishedActivities) SeedSampleData(ctx context.Context) error {
	now := r.clock()
	samples := []entity.PublishedActivity{
		{
			ID:                  "sample_1",
			Username:            "Sophia Carter",
			Location:            "Galle- Sri Lanka",
			Date:                "1st November 2025",
			Description:         "Lorem ipsum dolor sit amet consectetur. Tellus ultrices velit sed faucibus.",
			ActivityTitle:       "Galle Fort",
			ActivityDescription: "Lorem ipsum dolor sit amet consectetur. Tellus ultrices velit sed feugiat.",
			ActivityTime:        "11am- 1pm",
			LikeCount:           45,
			CommentCount:        23,
			ShareCount:          3,
			CreatedAtMs:         now.Add(-24 * time.Hour).UnixMilli(),
			UpdatedAtMs:         now.Add(-24 * time.Hour).UnixMilli(),
		},
		{
			ID:                  "sample_2",
			Username:            "John Doe",
			Location:            "Colombo- Sri Lanka",
			Date:                "2nd November 2025",
			Description:         "Amazing experience exploring the city center and local markets.",
			ActivityTitle:       "Colombo City Center",
			ActivityDescription: "Visited the bustling markets and historic buildings in the heart of Colombo.",
			ActivityTime:        "9am- 12pm",
			LikeCount:           32,
			CommentCount:        15,
			ShareCount:          7,
			CreatedAtMs:         now.Add(-12 * time.Hour).UnixMilli(),
			UpdatedAtMs:         now.Add(-12 * time.Hour).UnixMilli(),
		},
	}

	ids := make([]string, 0, len(samples))
	for _, sample := range samples {
		ids = append(ids, sample.ID)
	}
	existing, err := r.queries.CountByIDs(ctx, ids)
	if err != nil {
		logFailure(r.logger, opPublishedSeed, "query_failed", err)
		return newStorageError(opPublishedSeed, "query_failed", err)
	}
	if existing > 0 {
		return nil
	}
	for i := range samples {
		if err := r.queries.Insert(ctx, &samples[i]); err != nil {
			logFailure(r.logger, opPublishedSeed, "write_failed", err, zap.String("published_id", samples[i].ID))
			return newStorageError(opPublishedSeed, "write_failed", err)
		}
	}
	return nil
}
