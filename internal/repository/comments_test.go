package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/query"
)

func newCommentFixture(t *testing.T) (*Comments, *query.Comments, *query.TravelCards, *query.Notifications, time.Time) {
	t.Helper()
	db, broker := newTestStore(t)
	commentQueries := query.NewComments(db, broker)
	cardQueries := query.NewTravelCards(db, broker)
	notifQueries := query.NewNotifications(db, broker)
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	notifications, err := NewNotifications(NotificationsConfig{
		Queries:    notifQueries,
		IDProvider: &sequentialIDs{},
		Clock:      fixedClock(now),
	})
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	comments, err := NewComments(CommentsConfig{
		Queries:       commentQueries,
		Cards:         cardQueries,
		Notifications: notifications,
		IDProvider:    &sequentialIDs{},
		Clock:         fixedClock(now),
	})
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	return comments, commentQueries, cardQueries, notifQueries, now
}

func TestCommentCreateDenormalizesAndFansOut(t *testing.T) {
	comments, commentQueries, cardQueries, notifQueries, now := newCommentFixture(t)
	ctx := context.Background()

	card := entity.TravelCard{ID: "card-1", UserID: "owner", Description: "d", Location: "Galle", CommentsCount: 2}
	if err := cardQueries.Insert(ctx, &card); err != nil {
		t.Fatalf("insert card: %v", err)
	}
	actor := entity.User{ID: "commenter", DisplayName: "Ava K", ProfileImageURL: "http://img/ava"}

	created, err := comments.Create(ctx, &card, &actor, "lovely spot")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored, err := commentQueries.ByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.UserDisplayName != "Ava K" || stored.UserProfileImage != "http://img/ava" {
		t.Fatalf("expected denormalized author, got %q / %q", stored.UserDisplayName, stored.UserProfileImage)
	}
	if stored.Content != "lovely spot" {
		t.Fatalf("unexpected content %q", stored.Content)
	}
	if stored.CreatedAtMs != now.UnixMilli() || stored.UpdatedAtMs != now.UnixMilli() {
		t.Fatalf("expected both stamps at %d, got %d / %d", now.UnixMilli(), stored.CreatedAtMs, stored.UpdatedAtMs)
	}
	if stored.IsEdited {
		t.Fatalf("new comment must not be flagged edited")
	}

	storedCard, err := cardQueries.ByID(ctx, "card-1")
	if err != nil {
		t.Fatalf("card lookup: %v", err)
	}
	if storedCard.CommentsCount != 3 {
		t.Fatalf("expected comment counter 3, got %d", storedCard.CommentsCount)
	}

	inbox, err := notifQueries.ByUser(ctx, "owner")
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected one notification, got %d", len(inbox))
	}
	if inbox[0].Title != "New Comment" || inbox[0].Message != "Ava K commented on your post" {
		t.Fatalf("unexpected notification %q / %q", inbox[0].Title, inbox[0].Message)
	}
}

func TestCommentCreateOnOwnCardSkipsNotification(t *testing.T) {
	comments, _, cardQueries, notifQueries, _ := newCommentFixture(t)
	ctx := context.Background()

	card := entity.TravelCard{ID: "card-1", UserID: "owner", Description: "d", Location: "Galle"}
	if err := cardQueries.Insert(ctx, &card); err != nil {
		t.Fatalf("insert card: %v", err)
	}
	owner := entity.User{ID: "owner", DisplayName: "Self"}

	if _, err := comments.Create(ctx, &card, &owner, "my own note"); err != nil {
		t.Fatalf("create: %v", err)
	}

	inbox, err := notifQueries.ByUser(ctx, "owner")
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 0 {
		t.Fatalf("self-comment must not notify, got %d notifications", len(inbox))
	}
}

func TestCommentUpdateMarksEdited(t *testing.T) {
	comments, commentQueries, cardQueries, _, now := newCommentFixture(t)
	ctx := context.Background()

	card := entity.TravelCard{ID: "card-1", UserID: "owner", Description: "d", Location: "Galle"}
	if err := cardQueries.Insert(ctx, &card); err != nil {
		t.Fatalf("insert card: %v", err)
	}
	actor := entity.User{ID: "commenter", DisplayName: "Ava K"}
	created, err := comments.Create(ctx, &card, &actor, "first draft")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Content = "second draft"
	created.IsEdited = false
	created.UpdatedAtMs = 1
	if err := comments.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored, err := commentQueries.ByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !stored.IsEdited {
		t.Fatalf("expected edited flag after update")
	}
	if stored.UpdatedAtMs != now.UnixMilli() {
		t.Fatalf("expected updatedAt stamped to %d, got %d", now.UnixMilli(), stored.UpdatedAtMs)
	}
	if stored.Content != "second draft" {
		t.Fatalf("unexpected content %q", stored.Content)
	}
}
