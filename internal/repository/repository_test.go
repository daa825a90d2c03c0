package repository

import (
	"fmt"
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

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

type sequentialIDs struct {
	next int
}

func (s *sequentialIDs) NewID() (string, error) {
	s.next++
	return fmt.Sprintf("id-%d", s.next), nil
}
