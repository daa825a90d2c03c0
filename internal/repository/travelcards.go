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
	opCardGet    = "travel_cards.get"
	opCardInsert = "travel_cards.insert"
	opCardUpdate = "travel_cards.update"
	opCardDelete = "travel_cards.delete"
	opCardLike   = "travel_cards.toggle_like"
)

// TravelCardsConfig describes the dependencies of the travel card repository.
type TravelCardsConfig struct {
	Queries       *query.TravelCards
	Notifications *Notifications
	Clock         func() time.Time
	Logger        *zap.Logger
}

// TravelCards manages journal cards. Likes fan out a notification to the card
// owner as a second, non-transactional write: if it fails, the like patch
// stays committed.
type TravelCards struct {
	queries       *query.TravelCards
	notifications *Notifications
	clock         func() time.Time
	logger        *zap.Logger
}

// NewTravelCards constructs the travel card repository.
func NewTravelCards(cfg TravelCardsConfig) (*TravelCards, error) {
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
	return &TravelCards{
		queries:       cfg.Queries,
		notifications: cfg.Notifications,
		clock:         clock,
		logger:        logger,
	}, nil
}

// ByID returns the card or nil when absent.
func (r *TravelCards) ByID(ctx context.Context, id string) (*entity.TravelCard, error) {
	card, err := r.queries.ByID(ctx, id)
	if err != nil {
		logFailure(r.logger, opCardGet, "query_failed", err, zap.String("card_id", id))
		return nil, newStorageError(opCardGet, "query_failed", err)
	}
	return card, nil
}

// ByUser lists a user's cards, most recent first.
func (r *TravelCards) ByUser(ctx context.Context, userID string) ([]entity.TravelCard, error) {
	cards, err := r.queries.ByUser(ctx, userID)
	if err != nil {
		logFailure(r.logger, opCardGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opCardGet, "query_failed", err)
	}
	return cards, nil
}

// ObserveByUser yields a user's cards live.
func (r *TravelCards) ObserveByUser(ctx context.Context, userID string) *live.Result[[]entity.TravelCard] {
	return r.queries.ObserveByUser(ctx, userID)
}

// ObservePublic yields publicly visible cards live.
func (r *TravelCards) ObservePublic(ctx context.Context) *live.Result[[]entity.TravelCard] {
	return r.queries.ObservePublic(ctx)
}

// Insert persists a new card. IsSynced is forced true: the store is the only
// backend in local-only mode.
func (r *TravelCards) Insert(ctx context.Context, card *entity.TravelCard) error {
	stored := *card
	stored.IsSynced = true
	if err := r.queries.Insert(ctx, &stored); err != nil {
		logFailure(r.logger, opCardInsert, "write_failed", err, zap.String("card_id", card.ID))
		return newStorageError(opCardInsert, "write_failed", err)
	}
	return nil
}

// Update persists the card with updatedAt stamped to now and IsSynced forced
// true; caller-supplied values for both are ignored.
func (r *TravelCards) Update(ctx context.Context, card *entity.TravelCard) error {
	stamped := *card
	stamped.UpdatedAtMs = r.clock().UnixMilli()
	stamped.IsSynced = true
	if err := r.queries.Update(ctx, &stamped); err != nil {
		logFailure(r.logger, opCardUpdate, "write_failed", err, zap.String("card_id", card.ID))
		return newStorageError(opCardUpdate, "write_failed", err)
	}
	return nil
}

// Unsynced lists cards not yet marked synced. Insert and Update force the
// flag on, so the list stays empty unless rows arrive through another path.
func (r *TravelCards) Unsynced(ctx context.Context) ([]entity.TravelCard, error) {
	cards, err := r.queries.Unsynced(ctx)
	if err != nil {
		logFailure(r.logger, opCardGet, "query_failed", err)
		return nil, newStorageError(opCardGet, "query_failed", err)
	}
	return cards, nil
}

// MarkSynced sets the card's synced flag without touching anything else.
func (r *TravelCards) MarkSynced(ctx context.Context, id string) error {
	err := r.queries.Patch(ctx, id, map[string]interface{}{"is_synced": true})
	if err != nil {
		logFailure(r.logger, opCardUpdate, "write_failed", err, zap.String("card_id", id))
		return newStorageError(opCardUpdate, "write_failed", err)
	}
	return nil
}

// Delete removes the card. A missing id is a silent no-op.
func (r *TravelCards) Delete(ctx context.Context, id string) error {
	if err := r.queries.Delete(ctx, id); err != nil {
		logFailure(r.logger, opCardDelete, "write_failed", err, zap.String("card_id", id))
		return newStorageError(opCardDelete, "write_failed", err)
	}
	return nil
}

// ToggleLike flips the like state the actor currently sees and moves the
// card's like count by one. The new state is computed from caller-held values,
// not re-fetched; concurrent toggles of the same card can race. Turning a like
// on notifies the card owner unless the actor owns the card.
func (r *TravelCards) ToggleLike(ctx context.Context, card *entity.TravelCard, actor *entity.User, currentlyLiked bool) (bool, error) {
	nowLiked := !currentlyLiked
	newCount := card.LikesCount - 1
	if nowLiked {
		newCount = card.LikesCount + 1
	}
	err := r.queries.Patch(ctx, card.ID, map[string]interface{}{"likes_count": newCount})
	if err != nil {
		logFailure(r.logger, opCardLike, "write_failed", err, zap.String("card_id", card.ID))
		return currentlyLiked, newStorageError(opCardLike, "write_failed", err)
	}

	if nowLiked && r.notifications != nil && actor != nil && actor.ID != card.UserID {
		if err := r.notifications.CreateLike(ctx, card.UserID, actor, card.ID); err != nil {
			logFailure(r.logger, opCardLike, "notification_failed", err, zap.String("card_id", card.ID))
			return nowLiked, err
		}
	}
	return nowLiked, nil
}
