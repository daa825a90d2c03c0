package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/live"
	"github.com/mprlab/places/internal/query"
	"go.uber.org/zap"
)

const (
	opActivityGet    = "activities.get"
	opActivityCreate = "activities.create"
	opActivityUpdate = "activities.update"
	opActivityDelete = "activities.delete"

	publishedDateLayout = "2 January 2006"
	defaultActivityTime = "All day"
)

// ActivitiesConfig describes the dependencies of the activity repository.
type ActivitiesConfig struct {
	Queries    *query.Activities
	Published  *query.PublishedActivities
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Activities manages itinerary items. Creating one also publishes a
// denormalized feed snapshot; the two inserts are sequential, so a publish
// failure leaves the activity row committed.
type Activities struct {
	queries   *query.Activities
	published *query.PublishedActivities
	ids       IDProvider
	clock     func() time.Time
	logger    *zap.Logger
}

// NewActivities constructs the activity repository.
func NewActivities(cfg ActivitiesConfig) (*Activities, error) {
	if cfg.Queries == nil || cfg.Published == nil {
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
	return &Activities{
		queries:   cfg.Queries,
		published: cfg.Published,
		ids:       ids,
		clock:     clock,
		logger:    logger,
	}, nil
}

// ByID returns the activity or nil when absent.
func (r *Activities) ByID(ctx context.Context, id string) (*entity.Activity, error) {
	activity, err := r.queries.ByID(ctx, id)
	if err != nil {
		logFailure(r.logger, opActivityGet, "query_failed", err, zap.String("activity_id", id))
		return nil, newStorageError(opActivityGet, "query_failed", err)
	}
	return activity, nil
}

// ByUser lists a user's activities, earliest date first.
func (r *Activities) ByUser(ctx context.Context, userID string) ([]entity.Activity, error) {
	activities, err := r.queries.ByUser(ctx, userID)
	if err != nil {
		logFailure(r.logger, opActivityGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opActivityGet, "query_failed", err)
	}
	return activities, nil
}

// ByUserBetween lists a user's activities dated inside [start, end].
func (r *Activities) ByUserBetween(ctx context.Context, userID string, start, end time.Time) ([]entity.Activity, error) {
	activities, err := r.queries.ByUserBetween(ctx, userID, start, end)
	if err != nil {
		logFailure(r.logger, opActivityGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opActivityGet, "query_failed", err)
	}
	return activities, nil
}

// OnDate lists a user's activities falling on the calendar day of date.
func (r *Activities) OnDate(ctx context.Context, userID string, date time.Time) ([]entity.Activity, error) {
	start := midnight(date)
	return r.ByUserBetween(ctx, userID, start, start.AddDate(0, 0, 1).Add(-time.Millisecond))
}

// Pending lists a user's not-yet-completed activities.
func (r *Activities) Pending(ctx context.Context, userID string) ([]entity.Activity, error) {
	activities, err := r.queries.Pending(ctx, userID)
	if err != nil {
		logFailure(r.logger, opActivityGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opActivityGet, "query_failed", err)
	}
	return activities, nil
}

// ByCategory lists a user's activities of one category.
func (r *Activities) ByCategory(ctx context.Context, userID string, category entity.ActivityCategory) ([]entity.Activity, error) {
	activities, err := r.queries.ByCategory(ctx, userID, category)
	if err != nil {
		logFailure(r.logger, opActivityGet, "query_failed", err, zap.String("user_id", userID))
		return nil, newStorageError(opActivityGet, "query_failed", err)
	}
	return activities, nil
}

// ObserveByUser yields a user's activities live.
func (r *Activities) ObserveByUser(ctx context.Context, userID string) *live.Result[[]entity.Activity] {
	return r.queries.ObserveByUser(ctx, userID)
}

// ObservePending yields a user's pending activities live.
func (r *Activities) ObservePending(ctx context.Context, userID string) *live.Result[[]entity.Activity] {
	return r.queries.ObservePending(ctx, userID)
}

// CreateInput is the caller-supplied portion of a new activity.
type CreateInput struct {
	Location  string
	Notes     string
	Date      time.Time
	Category  entity.ActivityCategory
	ImageURLs []string
	Latitude  *float64
	Longitude *float64
}

// Create inserts the activity for author and then publishes its feed
// snapshot, denormalizing the author's display name (or the email local part
// when the name is blank) and profile image at this instant.
func (r *Activities) Create(ctx context.Context, author *entity.User, input CreateInput) (*entity.Activity, error) {
	id, err := r.ids.NewID()
	if err != nil {
		logFailure(r.logger, opActivityCreate, "id_generation_failed", err)
		return nil, newStorageError(opActivityCreate, "id_generation_failed", err)
	}
	now := r.clock().UnixMilli()
	category := input.Category
	if category == "" {
		category = entity.CategoryGeneral
	}
	activity := entity.Activity{
		ID:          id,
		UserID:      author.ID,
		Title:       input.Location,
		Location:    input.Location,
		Notes:       input.Notes,
		DateMs:      input.Date.UnixMilli(),
		CreatedAtMs: now,
		UpdatedAtMs: now,
		Category:    category,
		ImageURLs:   input.ImageURLs,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
	}
	if err := r.queries.Insert(ctx, &activity); err != nil {
		logFailure(r.logger, opActivityCreate, "write_failed", err, zap.String("user_id", author.ID))
		return nil, newStorageError(opActivityCreate, "write_failed", err)
	}

	if err := r.publish(ctx, author, &activity); err != nil {
		return &activity, err
	}
	return &activity, nil
}

func (r *Activities) publish(ctx context.Context, author *entity.User, activity *entity.Activity) error {
	id, err := r.ids.NewID()
	if err != nil {
		logFailure(r.logger, opActivityCreate, "id_generation_failed", err)
		return newStorageError(opActivityCreate, "id_generation_failed", err)
	}
	description := activity.Notes
	if description == "" {
		description = fmt.Sprintf("Exploring %s", activity.Location)
	}
	activityDescription := activity.Notes
	if activityDescription == "" {
		activityDescription = fmt.Sprintf("A wonderful experience at %s", activity.Location)
	}
	var hero, image string
	if len(activity.ImageURLs) > 0 {
		hero = activity.ImageURLs[0]
	}
	if len(activity.ImageURLs) > 1 {
		image = activity.ImageURLs[1]
	}
	now := r.clock().UnixMilli()
	published := entity.PublishedActivity{
		ID:                  id,
		Username:            feedUsername(author),
		UserProfileImage:    author.ProfileImageURL,
		Location:            activity.Location,
		Date:                entity.FromUnixMillis(activity.DateMs).Format(publishedDateLayout),
		Description:         description,
		ActivityTitle:       activity.Location,
		ActivityDescription: activityDescription,
		ActivityTime:        defaultActivityTime,
		HeroImage:           hero,
		ActivityImage:       image,
		CreatedAtMs:         now,
		UpdatedAtMs:         now,
	}
	if err := r.published.Insert(ctx, &published); err != nil {
		logFailure(r.logger, opActivityCreate, "publish_failed", err, zap.String("activity_id", activity.ID))
		return newStorageError(opActivityCreate, "publish_failed", err)
	}
	return nil
}

// feedUsername is the denormalized identity string stamped onto feed rows:
// the display name when present, otherwise the local part of the email.
func feedUsername(user *entity.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return emailLocalPart(user.Email)
}

func emailLocalPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}

// Update persists the activity with updatedAt stamped to now.
func (r *Activities) Update(ctx context.Context, activity *entity.Activity) error {
	stamped := *activity
	stamped.UpdatedAtMs = r.clock().UnixMilli()
	if err := r.queries.Update(ctx, &stamped); err != nil {
		logFailure(r.logger, opActivityUpdate, "write_failed", err, zap.String("activity_id", activity.ID))
		return newStorageError(opActivityUpdate, "write_failed", err)
	}
	return nil
}

// SetCompleted patches the completion flag.
func (r *Activities) SetCompleted(ctx context.Context, id string, completed bool) error {
	if err := r.queries.Patch(ctx, id, map[string]interface{}{"is_completed": completed}); err != nil {
		logFailure(r.logger, opActivityUpdate, "write_failed", err, zap.String("activity_id", id))
		return newStorageError(opActivityUpdate, "write_failed", err)
	}
	return nil
}

// Delete removes one activity. A missing id is a silent no-op.
func (r *Activities) Delete(ctx context.Context, id string) error {
	if err := r.queries.Delete(ctx, id); err != nil {
		logFailure(r.logger, opActivityDelete, "write_failed", err, zap.String("activity_id", id))
		return newStorageError(opActivityDelete, "write_failed", err)
	}
	return nil
}

// DeleteByUser removes every activity owned by userID.
func (r *Activities) DeleteByUser(ctx context.Context, userID string) error {
	if err := r.queries.DeleteByUser(ctx, userID); err != nil {
		logFailure(r.logger, opActivityDelete, "write_failed", err, zap.String("user_id", userID))
		return newStorageError(opActivityDelete, "write_failed", err)
	}
	return nil
}

// DeleteOlderThan prunes activities dated before the cutoff.
func (r *Activities) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	if err := r.queries.DeleteOlderThan(ctx, cutoff); err != nil {
		logFailure(r.logger, opActivityDelete, "write_failed", err)
		return newStorageError(opActivityDelete, "write_failed", err)
	}
	return nil
}
