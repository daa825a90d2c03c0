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
	opPostGet    = "feed_posts.get"
	opPostWrite  = "feed_posts.write"
	opPostToggle = "feed_posts.toggle"
	opPostSeed   = "feed_posts.seed"
)

// FeedPostsConfig describes the dependencies of the legacy feed repository.
type FeedPostsConfig struct {
	Queries *query.FeedPosts
	Clock   func() time.Time
	Logger  *zap.Logger
}

// FeedPosts manages the legacy feed projection with the same toggle contract
// as the published feed.
type FeedPosts struct {
	queries *query.FeedPosts
	clock   func() time.Time
	logger  *zap.Logger
}

// NewFeedPosts constructs the legacy feed repository.
func NewFeedPosts(cfg FeedPostsConfig) (*FeedPosts, error) {
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
	return &FeedPosts{queries: cfg.Queries, clock: clock, logger: logger}, nil
}

// ByID returns the post or nil when absent.
func (r *FeedPosts) ByID(ctx context.Context, id string) (*entity.FeedPost, error) {
	post, err := r.queries.ByID(ctx, id)
	if err != nil {
		logFailure(r.logger, opPostGet, "query_failed", err, zap.String("post_id", id))
		return nil, newStorageError(opPostGet, "query_failed", err)
	}
	return post, nil
}

// All lists every post, most recent first.
func (r *FeedPosts) All(ctx context.Context) ([]entity.FeedPost, error) {
	posts, err := r.queries.All(ctx)
	if err != nil {
		logFailure(r.logger, opPostGet, "query_failed", err)
		return nil, newStorageError(opPostGet, "query_failed", err)
	}
	return posts, nil
}

// ByUser lists a user's posts, most recent first.
func (r *FeedPosts) ByUser(ctx context.Context, userID string) ([]entity.FeedPost, error) {
	posts, err := r.queries.ByUser(ctx, userID)
	if err != nil {
		logFailure(r.logger, opPostGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opPostGet, "query_failed", err)
	}
	return posts, nil
}

// ObserveAll yields the post list live.
func (r *FeedPosts) ObserveAll(ctx context.Context) *live.Result[[]entity.FeedPost] {
	return r.queries.ObserveAll(ctx)
}

// ObserveBookmarked yields bookmarked posts live.
func (r *FeedPosts) ObserveBookmarked(ctx context.Context) *live.Result[[]entity.FeedPost] {
	return r.queries.ObserveBookmarked(ctx)
}

// Insert upserts the post as given.
func (r *FeedPosts) Insert(ctx context.Context, post *entity.FeedPost) error {
	if err := r.queries.Insert(ctx, post); err != nil {
		logFailure(r.logger, opPostWrite, "write_failed", err, zap.String("post_id", post.ID))
		return newStorageError(opPostWrite, "write_failed", err)
	}
	return nil
}

// Update replaces the post row.
func (r *FeedPosts) Update(ctx context.Context, post *entity.FeedPost) error {
	if err := r.queries.Update(ctx, post); err != nil {
		logFailure(r.logger, opPostWrite, "write_failed", err, zap.String("post_id", post.ID))
		return newStorageError(opPostWrite, "write_failed", err)
	}
	return nil
}

// Delete removes one post. A missing id is a silent no-op.
func (r *FeedPosts) Delete(ctx context.Context, id string) error {
	if err := r.queries.Delete(ctx, id); err != nil {
		logFailure(r.logger, opPostWrite, "write_failed", err, zap.String("post_id", id))
		return newStorageError(opPostWrite, "write_failed", err)
	}
	return nil
}

// ToggleLike flips the like state the caller currently sees and moves the
// like count by one, in a single patch of both fields.
func (r *FeedPosts) ToggleLike(ctx context.Context, id string, currentCount int, currentlyLiked bool) (bool, error) {
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
		logFailure(r.logger, opPostToggle, "write_failed", err, zap.String("post_id", id))
		return currentlyLiked, newStorageError(opPostToggle, "write_failed", err)
	}
	return nowLiked, nil
}

// ToggleBookmark flips the bookmark flag the caller currently sees.
func (r *FeedPosts) ToggleBookmark(ctx context.Context, id string, currentlyBookmarked bool) (bool, error) {
	nowBookmarked := !currentlyBookmarked
	err := r.queries.Patch(ctx, id, map[string]interface{}{"is_bookmarked": nowBookmarked})
	if err != nil {
		logFailure(r.logger, opPostToggle, "write_failed", err, zap.String("post_id", id))
		return currentlyBookmarked, newStorageError(opPostToggle, "write_failed", err)
	}
	return nowBookmarked, nil
}

// SetCommentCount patches the comment counter to an externally computed value.
func (r *FeedPosts) SetCommentCount(ctx context.Context, id string, count int) error {
	if err := r.queries.Patch(ctx, id, map[string]interface{}{"comment_count": count}); err != nil {
		logFailure(r.logger, opPostToggle, "write_failed", err, zap.String("post_id", id))
		return newStorageError(opPostToggle, "write_failed", err)
	}
	return nil
}

// SeedSampleData inserts the fixed demo posts once, skipping entirely when
// any seed id already exists.
func (r *FeedPosts) SeedSampleData(ctx context.Context) error {
	now := r.clock()
	authors := []struct {
		id       string
		userID   string
		username string
		age      time.Duration
	}{
		{"post_1", "user_1", "Sherwin Jieshen Li", 0},
		{"post_2", "user_2", "Ethan Ramirez", time.Hour},
		{"post_3", "user_3", "Priya Kapoor", 2 * time.Hour},
		{"post_4", "user_4", "Amina Hassan", 3 * time.Hour},
	}

	ids := make([]string, 0, len(authors))
	for _, author := range authors {
		ids = append(ids, author.id)
	}
	existing, err := r.queries.CountByIDs(ctx, ids)
	if err != nil {
		logFailure(r.logger, opPostSeed, "query_failed", err)
		return newStorageError(opPostSeed, "query_failed", err)
	}
	if existing > 0 {
		return nil
	}

	for _, author := range authors {
		post := entity.FeedPost{
			ID:           author.id,
			UserID:       author.userID,
			Username:     author.username,
			Location:     "Galle - Sri Lanka",
			Description:  "Lorem ipsum dolor sit amet consectetur. Tellus ultrices velit sed et volutpat.",
			TimeRange:    "1:00pm to 2:00pm",
			LikeCount:    45,
			CommentCount: 23,
			ShareCount:   5,
			CreatedAtMs:  now.Add(-author.age).UnixMilli(),
		}
		if err := r.queries.Insert(ctx, &post); err != nil {
			logFailure(r.logger, opPostSeed, "write_failed", err, zap.String("post_id", post.ID))
			return newStorageError(opPostSeed, "write_failed", err)
		}
	}
	return nil
}
