package query

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mprlab/places/internal/database"
	"github.com/mprlab/places/internal/live"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*gorm.DB, *live.Broker) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db, live.NewBroker()
}

func nextUpdate[T any](t *testing.T, updates <-chan T) T {
	t.Helper()
	select {
	case value, ok := <-updates:
		if !ok {
			t.Fatalf("updates channel closed unexpectedly")
		}
		return value
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for emission")
	}
	var zero T
	return zero
}
