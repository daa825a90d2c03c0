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
	opCommentGet    = "comments.get"
	opCommentCreate = "comments.create"
	opCommentUpdate = "comments.update"
	opCommentDelete = "comments.delete"
)

// CommentsConfig describes the dependencies of the comment repository.
type CommentsConfig struct {
	Queries       *query.Comments
	Cards         *query.TravelCards
	Notifications *Notifications
	IDProvider    IDProvider
	Clock         func() time.Time
	Logger        *zap.Logger
}

// Comments manages card comments. Creation keeps the owning card's comment
// counter in step and fans a notification out to the card owner. The three
// writes are sequential, not transactional: a failure partway leaves the
// earlier writes committed.
type Comments struct {
	queries       *query.Comments
	cards         *query.TravelCards
	notifications *Notifications
	ids           IDProvider
	clock         func() time.Time
	logger        *zap.Logger
}

// NewComments constructs the comment repository.
func NewComments(cfg CommentsConfig) (*Comments, error) {
	if cfg.Queries == nil || cfg.Cards == nil {
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
	return &Comments{
		queries:       cfg.Queries,
		cards:         cfg.Cards,
		notifications: cfg.Notifications,
		ids:           ids,
		clock:         clock,
		logger:        logger,
	}, nil
}

// ByID returns the comment or nil when absent.
func (r *Comments) ByID(ctx context.Context, id string) (*entity.Comment, error) {
	comment, err := r.queries.ByID(ctx, id)
	if err != nil {
		logFailure(r.logger, opCommentGet, "query_failed", err, zap.String("comment_id", id))
		return nil, newStorageError(opCommentGet, "query_failed", err)
	}
	return comment, nil
}

// ByTravelCard lists a card's comments oldest first.
func (r *Comments) ByTravelCard(ctx context.Context, travelCardID string) ([]entity.Comment, error) {
	comments, err := r.queries.ByTravelCard(ctx, travelCardID)
	if err != nil {
		logFailure(r.logger, opCommentGet, "query_failed", err, zap.String("card_id", travelCardID))
		return nil, newStorageError(opCommentGet, "query_failed", err)
	}
	return comments, nil
}

// ObserveByTravelCard yields a card's comments live.
func (r *Comments) ObserveByTravelCard(ctx context.Context, travelCardID string) *live.Result[[]entity.Comment] {
	return r.queries.ObserveByTravelCard(ctx, travelCardID)
}

// Create posts a comment by actor on the card, denormalizing the actor's
// display name and image at this instant. It bumps the card's comment counter
// and notifies the card owner unless the actor owns the card.
func (r *Comments) Create(ctx context.Context, card *entity.TravelCard, actor *entity.User, content string) (*entity.Comment, error) {
	id, err := r.ids.NewID()
	if err != nil {
		logFailure(r.logger, opCommentCreate, "id_generation_failed", err)
		return nil, newStorageError(opCommentCreate, "id_generation_failed", err)
	}
	now := r.clock().UnixMilli()
	comment := entity.Comment{
		ID:               id,
		TravelCardID:     card.ID,
		UserID:           actor.ID,
		UserDisplayName:  actor.DisplayName,
		UserProfileImage: actor.ProfileImageURL,
		Content:          content,
		CreatedAtMs:      now,
		UpdatedAtMs:      now,
	}
	if err := r.queries.Insert(ctx, &comment); err != nil {
		logFailure(r.logger, opCommentCreate, "write_failed", err, zap.String("card_id", card.ID))
		return nil, newStorageError(opCommentCreate, "write_failed", err)
	}

	err = r.cards.Patch(ctx, card.ID, map[string]interface{}{"comments_count": card.CommentsCount + 1})
	if err != nil {
		logFailure(r.logger, opCommentCreate, "counter_failed", err, zap.String("card_id", card.ID))
		return &comment, newStorageError(opCommentCreate, "counter_failed", err)
	}

	if r.notifications != nil && actor.ID != card.UserID {
		if err := r.notifications.CreateComment(ctx, card.UserID, actor, card.ID); err != nil {
			logFailure(r.logger, opCommentCreate, "notification_failed", err, zap.String("card_id", card.ID))
			return &comment, err
		}
	}
	return &comment, nil
}

// Update persists the comment with updatedAt stamped to now and isEdited
// forced true; caller-supplied values for both are ignored.
func (r *Comments) Update(ctx context.Context, comment *entity.Comment) error {
	stamped := *comment
	stamped.UpdatedAtMs = r.clock().UnixMilli()
	stamped.IsEdited = true
	if err := r.queries.Update(ctx, &stamped); err != nil {
		logFailure(r.logger, opCommentUpdate, "write_failed", err, zap.String("comment_id", comment.ID))
		return newStorageError(opCommentUpdate, "write_failed", err)
	}
	return nil
}

// Delete removes one comment. A missing id is a silent no-op.
func (r *Comments) Delete(ctx context.Context, id string) error {
	if err := r.queries.Delete(ctx, id); err != nil {
		logFailure(r.logger, opCommentDelete, "write_failed", err, zap.String("comment_id", id))
		return newStorageError(opCommentDelete, "write_failed", err)
	}
	return nil
}

// DeleteByTravelCard removes every comment on a card.
func (r *Comments) DeleteByTravelCard(ctx context.Context, travelCardID string) error {
	if err := r.queries.DeleteByTravelCard(ctx, travelCardID); err != nil {
		logFailure(r.logger, opCommentDelete, "write_failed", err, zap.String("card_id", travelCardID))
		return newStorageError(opCommentDelete, "write_failed", err)
	}
	return nil
}
