// Package query provides typed CRUD against single tables, in two read modes:
// one-shot snapshots and live results that re-emit after every write to the
// table. Singular lookups that match nothing return (nil, nil). Every
// committed write publishes the table to the change broker.
package query

import (
	"context"
	"errors"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Users is the data-access object for the users table.
type Users struct {
	db     *gorm.DB
	broker *live.Broker
}

// NewUsers binds the DAO to a store connection and change broker.
func NewUsers(db *gorm.DB, broker *live.Broker) *Users {
	return &Users{db: db, broker: broker}
}

func (q *Users) table() string {
	return entity.User{}.TableName()
}

// ByID returns the user or nil when absent.
func (q *Users) ByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := q.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByEmail returns the user registered under email, or nil.
func (q *Users) ByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := q.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// All lists every user ordered by display name.
func (q *Users) All(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := q.db.WithContext(ctx).Order("display_name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ObserveAll is the live counterpart of All.
func (q *Users) ObserveAll(ctx context.Context) *live.Result[[]entity.User] {
	return live.Observe(ctx, q.broker, func(ctx context.Context) ([]entity.User, error) {
		return q.All(ctx)
	}, q.table())
}

// Insert upserts by primary key: a second insert with the same id fully
// replaces the row.
func (q *Users) Insert(ctx context.Context, user *entity.User) error {
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(user).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Update replaces all fields; an absent id behaves as an insert.
func (q *Users) Update(ctx context.Context, user *entity.User) error {
	if err := q.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Patch applies a targeted field subset to one row.
func (q *Users) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	err := q.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}

// Delete removes one row; a missing id is a silent no-op.
func (q *Users) Delete(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.User{}).Error; err != nil {
		return err
	}
	q.broker.Publish(q.table())
	return nil
}
