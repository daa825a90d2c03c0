package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mprlab/places/internal/entity"
	"github.com/mprlab/places/internal/query"
)

func newActivityFixture(t *testing.T) (*Activities, *query.Activities, *query.PublishedActivities, time.Time) {
	t.Helper()
	db, broker := newTestStore(t)
	activityQueries := query.NewActivities(db, broker)
	publishedQueries := query.NewPublishedActivities(db, broker)
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	activities, err := NewActivities(ActivitiesConfig{
		Queries:    activityQueries,
		Published:  publishedQueries,
		IDProvider: &sequentialIDs{},
		Clock:      fixedClock(now),
	})
	if err != nil {
		t.Fatalf("activities: %v", err)
	}
	return activities, activityQueries, publishedQueries, now
}

func TestActivityCreatePublishesFeedSnapshot(t *testing.T) {
	activities, activityQueries, publishedQueries, now := newActivityFixture(t)
	ctx := context.Background()

	author := entity.User{ID: "author", Email: "ava@example.com", DisplayName: "Ava K", ProfileImageURL: "http://img/ava"}
	date := time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)
	created, err := activities.Create(ctx, &author, CreateInput{
		Location:  "Galle",
		Date:      date,
		Category:  entity.CategorySightseeing,
		ImageURLs: []string{"http://img/hero", "http://img/second"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	storedActivity, err := activityQueries.ByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("activity lookup: %v", err)
	}
	if storedActivity.Title != "Galle" || storedActivity.Location != "Galle" {
		t.Fatalf("expected title mirroring location, got %q / %q", storedActivity.Title, storedActivity.Location)
	}
	if storedActivity.Category != entity.CategorySightseeing {
		t.Fatalf("unexpected category %q", storedActivity.Category)
	}

	feed, err := publishedQueries.All(ctx)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("expected one published entry, got %d", len(feed))
	}
	published := feed[0]
	if published.Username != "Ava K" {
		t.Fatalf("expected display name on feed row, got %q", published.Username)
	}
	if published.Description != "Exploring Galle" {
		t.Fatalf("unexpected description %q", published.Description)
	}
	if published.ActivityDescription != "A wonderful experience at Galle" {
		t.Fatalf("unexpected activity description %q", published.ActivityDescription)
	}
	if published.ActivityTime != "All day" {
		t.Fatalf("unexpected activity time %q", published.ActivityTime)
	}
	if published.Date != "2 April 2026" {
		t.Fatalf("unexpected date %q", published.Date)
	}
	if published.ActivityTitle != "Galle" {
		t.Fatalf("unexpected activity title %q", published.ActivityTitle)
	}
	if published.HeroImage != "http://img/hero" || published.ActivityImage != "http://img/second" {
		t.Fatalf("unexpected images %q / %q", published.HeroImage, published.ActivityImage)
	}
	if published.UserProfileImage != "http://img/ava" {
		t.Fatalf("unexpected profile image %q", published.UserProfileImage)
	}
	if published.CreatedAtMs != now.UnixMilli() {
		t.Fatalf("expected createdAt %d, got %d", now.UnixMilli(), published.CreatedAtMs)
	}
}

func TestActivityCreateUsesNotesWhenPresent(t *testing.T) {
	activities, _, publishedQueries, _ := newActivityFixture(t)
	ctx := context.Background()

	author := entity.User{ID: "author", Email: "ava@example.com", DisplayName: "Ava K"}
	_, err := activities.Create(ctx, &author, CreateInput{
		Location: "Colombo",
		Notes:    "Street food crawl",
		Date:     time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	feed, err := publishedQueries.All(ctx)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if feed[0].Description != "Street food crawl" || feed[0].ActivityDescription != "Street food crawl" {
		t.Fatalf("expected notes to carry over, got %q / %q", feed[0].Description, feed[0].ActivityDescription)
	}
}

func TestActivityCreateFallsBackToEmailLocalPart(t *testing.T) {
	activities, _, publishedQueries, _ := newActivityFixture(t)
	ctx := context.Background()

	author := entity.User{ID: "author", Email: "ava@example.com"}
	_, err := activities.Create(ctx, &author, CreateInput{
		Location: "Kandy",
		Date:     time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	feed, err := publishedQueries.All(ctx)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if feed[0].Username != "ava" {
		t.Fatalf("expected email local part as username, got %q", feed[0].Username)
	}
}

func TestActivityOnDateBounds(t *testing.T) {
	activities, activityQueries, _, _ := newActivityFixture(t)
	ctx := context.Background()

	day := time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)
	fixtures := []entity.Activity{
		{ID: "a1", UserID: "author", Title: "x", Location: "x", DateMs: day.Add(2 * time.Hour).UnixMilli()},
		{ID: "a2", UserID: "author", Title: "x", Location: "x", DateMs: day.Add(-time.Hour).UnixMilli()},
		{ID: "a3", UserID: "author", Title: "x", Location: "x", DateMs: day.Add(25 * time.Hour).UnixMilli()},
	}
	for i := range fixtures {
		if err := activityQueries.Insert(ctx, &fixtures[i]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	onDay, err := activities.OnDate(ctx, "author", day.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("on date: %v", err)
	}
	if len(onDay) != 1 || onDay[0].ID != "a1" {
		t.Fatalf("expected only a1 on the day, got %#v", onDay)
	}
}
