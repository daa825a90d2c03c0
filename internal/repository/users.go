package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"github.com/mprlab/places/internal/query"
	"go.uber.org/zap"
)

var errMissingQueries = errors.New("query layer is required")

const (
	opUserGet    = "users.get"
	opUserInsert = "users.insert"
	opUserUpdate = "users.update"
	opUserDelete = "users.delete"
)

// UsersConfig describes the dependencies of the user repository.
type UsersConfig struct {
	Queries *query.Users
	Clock   func() time.Time
	Logger  *zap.Logger
}

// Users manages account rows.
type Users struct {
	queries *query.Users
	clock   func() time.Time
	logger  *zap.Logger
}

// NewUsers constructs the user repository.
func NewUsers(cfg UsersConfig) (*Users, error) {
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
	return &Users{queries: cfg.Queries, clock: clock, logger: logger}, nil
}

// ByID returns the user or nil when absent.
func (r *Users) ByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := r.queries.ByID(ctx, id)
	if err != nil {
		logFailure(r.logger, opUserGet, "query_failed", err, zap.String("user_id", id))
		return nil, newStorageError(opUserGet, "query_failed", err)
	}
	return user, nil
}

// ByEmail returns the user registered under email, or nil.
func (r *Users) ByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := r.queries.ByEmail(ctx, email)
	if err != nil {
		logFailure(r.logger, opUserGet, "query_failed", err)
		return nil, newStorageError(opUserGet, "query_failed", err)
	}
	return user, nil
}

// All lists every user ordered by display name.
func (r *Users) All(ctx context.Context) ([]entity.User, error) {
	users, err := r.queries.All(ctx)
	if err != nil {
		logFailure(r.logger, opUserGet, "query_failed", err)
		return nil, newStorageError(opUserGet, "query_failed", err)
	}
	return users, nil
}

// ObserveAll yields the user list live.
func (r *Users) ObserveAll(ctx context.Context) *live.Result[[]entity.User] {
	return r.queries.ObserveAll(ctx)
}

// Insert upserts the user row as given.
func (r *Users) Insert(ctx context.Context, user *entity.User) error {
	if err := r.queries.Insert(ctx, user); err != nil {
		logFailure(r.logger, opUserInsert, "write_failed", err, zap.String("user_id", user.ID))
		return newStorageError(opUserInsert, "write_failed", err)
	}
	return nil
}

// Update persists the user with updatedAt stamped to now; any caller-supplied
// value is ignored.
func (r *Users) Update(ctx context.Context, user *entity.User) error {
	stamped := *user
	stamped.UpdatedAtMs = r.clock().UnixMilli()
	if err := r.queries.Update(ctx, &stamped); err != nil {
		logFailure(r.logger, opUserUpdate, "write_failed", err, zap.String("user_id", user.ID))
		return newStorageError(opUserUpdate, "write_failed", err)
	}
	return nil
}

// Delete removes the user row. A missing id is a silent no-op.
func (r *Users) Delete(ctx context.Context, id string) error {
	if err := r.queries.Delete(ctx, id); err != nil {
		logFailure(r.logger, opUserDelete, "write_failed", err, zap.String("user_id", id))
		return newStorageError(opUserDelete, "write_failed", err)
	}
	return nil
}
