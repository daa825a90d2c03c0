package query

import (
	"context"
	"errors"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Comments is the data-access object for the comments table.
type Comments struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewComments binds the DAO to a store connection and change broker.
func NewComments(db *gorm.DB, broker *live.Broker) *Comments {
	return &Comments{db: db, broker: broker}
}

func (q *Comments) table() string {
	return entity.Comment{}.TableName()
}

// ByID returns the comment or nil when absent.
func (q *Comments) ByID(ctx context.Context, id string) (*entity.Comment, error) {
	var comment entity.Comment
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ByTravelCard lists a card's comments oldest first.
func (q *Comments) ByTravelCard(ctx context.Context, travelCardID string) ([]entity.Comment, error) {
	var comments []entity.Comment
	err := q.db.WithContext(ctx).
		Where("travel_card_id = ?", travelCardID).
		Order("created_at_ms ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// ObserveByTravelCard is the live counterpart of ByTravelCard.
func (q *Comments) ObserveByTravelCard(ctx context.Context, travelCardID string) *live.Result[[]entity.Comment] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.Comment, error) {
		return q.ByTravelCard(ctx, travelCardID)
	}, q.table())
}

// Insert upserts by primary key.
func (q *Comments) Insert(ctx context.Context, comment *entity.Comment) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(comment).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Update replaces all fields; an absent id behaves as an insert.
func (q *Comments) Update(ctx context.Context, comment *entity.Comment) error {
	if err := q.db.WithContext(ctx).Save(comment).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Delete removes one row; a missing id is a silent no-op.
func (q *Comments) Delete(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Comment{}).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// DeleteByTravelCard removes every comment on a card.
func (q *Comments) DeleteByTravelCard(ctx context.Context, travelCardID string) error {
	err := q.db.WithContext(ctx).Where("travel_card_id = ?", travelCardID).Delete(&entity.Comment{}).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}
