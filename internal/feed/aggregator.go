// Package feed assembles per-user feed views on top of the query layer.
//
// Published activities carry a denormalized username instead of a foreign
// key, so attributing them to an account requires matching that string
// against the account's profile. The aggregator owns that matching rule.
package feed

import (
	"context"
	"errors"
	"strings"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"github.com/mprlab/places/internal/query"
	"go.uber.org/zap"
)

var errMissingQueries = errors.New("feed: query dependencies are required")

// AggregatorConfig carries the aggregator dependencies.
type AggregatorConfig struct {
	Published *query.PublishedActivities
	Posts     *query.FeedPosts
	Broker    *live.Broker
	Logger    *zap.Logger
}

// Aggregator builds feed projections scoped to a single account.
type Aggregator struct {
	published *query.PublishedActivities
	posts     *query.FeedPosts
	broker    *live.Broker
	logger    *zap.Logger
}

// NewAggregator validates the configuration and returns the aggregator.
func NewAggregator(cfg AggregatorConfig) (*Aggregator, error) {
	if cfg.Published == nil || cfg.Posts == nil || cfg.Broker == nil {
		return nil, errMissingQueries
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		published: cfg.Published,
		posts:     cfg.Posts,
		broker:    cfg.Broker,
		logger:    logger,
	}, nil
}

// identityCandidates lists the strings a published activity's username may
// legitimately carry for this account: the display name and the local part of
// the email address. Comparison is case-insensitive.
func identityCandidates(user *entity.User) []string {
	candidates := make([]string, 0, 2)
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		candidates = append(candidates, strings.ToLower(name))
	}
	if local := emailLocalPart(user.Email); local != "" {
		candidates = append(candidates, strings.ToLower(local))
	}
	return candidates
}

func emailLocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return strings.TrimSpace(email)
	}
	return strings.TrimSpace(local)
}

func matchesAny(username string, candidates []string) bool {
	needle := strings.ToLower(strings.TrimSpace(username))
	for _, candidate := range candidates {
		if needle == candidate {
			return true
		}
	}
	return false
}

// ActivitiesForUser returns the published activities attributable to the
// given account, most recent first.
func (a *Aggregator) ActivitiesForUser(ctx context.Context, user *entity.User) ([]entity.PublishedActivity, error) {
	if user == nil {
		return nil, nil
	}
	candidates := identityCandidates(user)
	a.logger.Debug("matching feed identity",
		zap.String("userId", user.ID),
		zap.Strings("candidates", candidates))
	all, err := a.published.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]entity.PublishedActivity, 0, len(all))
	for _, activity := range all {
		if matchesAny(activity.Username, candidates) {
			matched = append(matched, activity)
		}
	}
	return matched, nil
}

// ObserveActivitiesForUser is the live counterpart of ActivitiesForUser. The
// filter is re-run on every published-activity change.
func (a *Aggregator) ObserveActivitiesForUser(ctx context.Context, user *entity.User) *live.Result[[]entity.PublishedActivity] {
	return live.Observe(ctx, a.broker, func(ctx context.Context) ([]entity.PublishedActivity, error) {
		return a.ActivitiesForUser(ctx, user)
	}, a.published.Table())
}

// PostsForUser returns the account's own feed posts, most recent first. Feed
// posts keep a real user id, so no identity matching is involved.
func (a *Aggregator) PostsForUser(ctx context.Context, user *entity.User) ([]entity.FeedPost, error) {
	if user == nil {
		return nil, nil
	}
	return a.posts.ByUser(ctx, user.ID)
}

// ObservePostsForUser is the live counterpart of PostsForUser.
func (a *Aggregator) ObservePostsForUser(ctx context.Context, user *entity.User) *live.Result[[]entity.FeedPost] {
	return live.Observe(ctx, a.broker, func(ctx context.Context) ([]entity.FeedPost, error) {
		return a.PostsForUser(ctx, user)
	}, a.posts.Table())
}
