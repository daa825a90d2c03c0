package query

import (
	"context"
	"errors"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TravelCards is the data-access object for the travel_cards table.
type TravelCards struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewTravelCards binds the DAO to a store connection and change broker.
func NewTravelCards(db *gorm.DB, broker *live.Broker) *TravelCards {
	return &TravelCards{db: db, broker: broker}
}

func (q *TravelCards) table() string {
	return entity.TravelCard{}.TableName()
}

// ByID returns the card or nil when absent.
func (q *TravelCards) ByID(ctx context.Context, id string) (*entity.TravelCard, error) {
	var card entity.TravelCard
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// All lists every card, most recent first.
func (q *TravelCards) All(ctx context.Context) ([]entity.TravelCard, error) {
	var cards []entity.TravelCard
	if err := q.db.WithContext(ctx).Order("created_at_ms DESC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ByUser lists a user's cards, most recent first.
func (q *TravelCards) ByUser(ctx context.Context, userID string) ([]entity.TravelCard, error) {
	var cards []entity.TravelCard
	err := q.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at_ms DESC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Public lists publicly visible cards, most recent first.
func (q *TravelCards) Public(ctx context.Context) ([]entity.TravelCard, error) {
	var cards []entity.TravelCard
	err := q.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at_ms DESC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Unsynced lists cards not yet marked synced. Always empty in local-only mode.
func (q *TravelCards) Unsynced(ctx context.Context) ([]entity.TravelCard, error) {
	var cards []entity.TravelCard
	if err := q.db.WithContext(ctx).Where("is_synced = ?", false).Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ObserveAll is the live counterpart of All.
func (q *TravelCards) ObserveAll(ctx context.Context) *live.Result[[]entity.TravelCard] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.TravelCard, error) {
		return q.All(ctx)
	}, q.table())
}

// ObserveByUser is the live counterpart of ByUser.
func (q *TravelCards) ObserveByUser(ctx context.Context, userID string) *live.Result[[]entity.TravelCard] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.TravelCard, error) {
		return q.ByUser(ctx, userID)
	}, q.table())
}

// ObservePublic is the live counterpart of Public.
func (q *TravelCards) ObservePublic(ctx context.Context) *live.Result[[]entity.TravelCard] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.TravelCard, error) {
		return q.Public(ctx)
	}, q.table())
}

// Insert upserts by primary key.
func (q *TravelCards) Insert(ctx context.Context, card *entity.TravelCard) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(card).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Update replaces all fields; an absent id behaves as an insert.
func (q *TravelCards) Update(ctx context.Context, card *entity.TravelCard) error {
	if err := q.db.WithContext(ctx).Save(card).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Patch applies a targeted field subset to one row.
func (q *TravelCards) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	err := q.db.WithContext(ctx).Model(&entity.TravelCard{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Delete removes one row; a missing id is a silent no-op.
func (q *TravelCards) Delete(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.TravelCard{}).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// DeleteByUser removes every card owned by userID.
func (q *TravelCards) DeleteByUser(ctx context.Context, userID string) error {
	err := q.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.TravelCard{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}
