package query

import (
	"context"
	"testing"

	"github.com/mprlab/places/internal/entity"
)

func TestUsersInsertUpsertsByID(t *testing.T) {
	db, broker := newTestStore(t)
	users := NewUsers(db, broker)
	ctx := context.Background()

	first := entity.User{ID: "user-1", Email: "ava@example.com", DisplayName: "Ava", Bio: "traveler"}
	if err := users.Insert(ctx, &first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	replacement := entity.User{ID: "user-1", Email: "ava@example.com", DisplayName: "Ava K"}
	if err := users.Insert(ctx, &replacement); err != nil {
		t.Fatalf("reinsert: %v", err)
	}

	stored, err := users.ByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected user row")
	}
	if stored.DisplayName != "Ava K" {
		t.Fatalf("expected replacement to win, got %q", stored.DisplayName)
	}
	if stored.Bio != "" {
		t.Fatalf("expected full replacement, bio kept %q", stored.Bio)
	}
}

func TestUsersLookupsReturnNilWhenAbsent(t *testing.T) {
	db, broker := newTestStore(t)
	users := NewUsers(db, broker)
	ctx := context.Background()

	byID, err := users.ByID(ctx, "missing")
	if err != nil || byID != nil {
		t.Fatalf("expected (nil, nil) for missing id, got (%v, %v)", byID, err)
	}
	byEmail, err := users.ByEmail(ctx, "nobody@example.com")
	if err != nil || byEmail != nil {
		t.Fatalf("expected (nil, nil) for missing email, got (%v, %v)", byEmail, err)
	}
}

func TestUsersAllOrdersByDisplayName(t *testing.T) {
	db, broker := newTestStore(t)
	users := NewUsers(db, broker)
	ctx := context.Background()

	fixtures := []entity.User{
		{ID: "user-1", Email: "zoe@example.com", DisplayName: "Zoe"},
		{ID: "user-2", Email: "ava@example.com", DisplayName: "Ava"},
		{ID: "user-3", Email: "mia@example.com", DisplayName: "Mia"},
	}
	for i := range fixtures {
		if err := users.Insert(ctx, &fixtures[i]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := users.All(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}
	if all[0].DisplayName != "Ava" || all[1].DisplayName != "Mia" || all[2].DisplayName != "Zoe" {
		t.Fatalf("unexpected order: %q, %q, %q", all[0].DisplayName, all[1].DisplayName, all[2].DisplayName)
	}
}

func TestUsersObserveAllPushesAfterWrite(t *testing.T) {
	db, broker := newTestStore(t)
	users := NewUsers(db, broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := users.ObserveAll(ctx)
	defer result.Cancel()

	initial := nextUpdate(t, result.Updates())
	if len(initial) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d rows", len(initial))
	}

	if err := users.Insert(ctx, &entity.User{ID: "user-1", Email: "ava@example.com", DisplayName: "Ava"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	updated := nextUpdate(t, result.Updates())
	if len(updated) != 1 || updated[0].ID != "user-1" {
		t.Fatalf("expected pushed snapshot with the new user, got %#v", updated)
	}
}
