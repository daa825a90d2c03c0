package database

import (
	"path/filepath"
	"testing"

	"github.com/mprlab/places/internal/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return db
}

func closeStore(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap connection: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
}

func TestOpenCreatesSchemaAndMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.db")
	db := openTestStore(t, path)
	defer closeStore(t, db)

	var meta storeMeta
	if err := db.Where("id = ?", 1).Take(&meta).Error; err != nil {
		t.Fatalf("expected meta row: %v", err)
	}
	if meta.SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, meta.SchemaVersion)
	}
	for _, model := range tableModels() {
		if !db.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T", model)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.db")
	db := openTestStore(t, path)
	user := entity.User{ID: "user-1", Email: "ava@example.com", DisplayName: "Ava"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	closeStore(t, db)

	db = openTestStore(t, path)
	defer closeStore(t, db)
	var found entity.User
	if err := db.Where("id = ?", "user-1").Take(&found).Error; err != nil {
		t.Fatalf("expected user to survive reopen: %v", err)
	}
	if found.Email != "ava@example.com" {
		t.Fatalf("unexpected email %q", found.Email)
	}
}

func TestVersionMismatchRecreatesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.db")
	db := openTestStore(t, path)
	if err := db.Create(&entity.User{ID: "user-1", Email: "ava@example.com", DisplayName: "Ava"}).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	err := db.Model(&storeMeta{}).Where("id = ?", 1).
		Update("schema_version", SchemaVersion-1).Error
	if err != nil {
		t.Fatalf("downgrade meta: %v", err)
	}
	closeStore(t, db)

	db = openTestStore(t, path)
	defer closeStore(t, db)

	var count int64
	if err := db.Model(&entity.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty store after recreate, got %d users", count)
	}
	var meta storeMeta
	if err := db.Where("id = ?", 1).Take(&meta).Error; err != nil {
		t.Fatalf("expected fresh meta row: %v", err)
	}
	if meta.SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d after recreate, got %d", SchemaVersion, meta.SchemaVersion)
	}
	if err := db.Create(&entity.User{ID: "user-2", Email: "ben@example.com", DisplayName: "Ben"}).Error; err != nil {
		t.Fatalf("insert after recreate: %v", err)
	}
	closeStore(t, db)

	// The recreated store reopens like any other.
	db = openTestStore(t, path)
	defer closeStore(t, db)
	var found entity.User
	if err := db.Where("id = ?", "user-2").Take(&found).Error; err != nil {
		t.Fatalf("expected user to survive reopen after recreate: %v", err)
	}
}

func TestMatchedVersionLeavesTablesAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.db")
	db := openTestStore(t, path)
	if err := db.Migrator().DropTable(&entity.User{}); err != nil {
		t.Fatalf("drop users table: %v", err)
	}
	closeStore(t, db)

	// Structural drift under a matching version is never repaired in place;
	// only a version bump rebuilds the schema.
	db = openTestStore(t, path)
	defer closeStore(t, db)
	if db.Migrator().HasTable(&entity.User{}) {
		t.Fatal("expected users table to stay absent on matched version")
	}
	var meta storeMeta
	if err := db.Where("id = ?", 1).Take(&meta).Error; err != nil {
		t.Fatalf("expected meta row: %v", err)
	}
	if meta.SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, meta.SchemaVersion)
	}
}
