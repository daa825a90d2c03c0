package database

import (
	"errors"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/mprlab/places/internal/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SchemaVersion is the single monotonic version of the relational schema. Any
// structural change to a table requires bumping it; a persisted store whose
// version differs is dropped and recreated empty. Destructive recreate is the
// only migration policy.
const SchemaVersion = 5

type storeMeta struct {
	ID            int   `gorm:"column:id;primaryKey"`
	SchemaVersion int   `gorm:"column:schema_version;not null"`
	CreatedAtMs   int64 `gorm:"column:created_at_ms;not null"`
}

func (storeMeta) TableName() string {
	return "store_meta"
}

func tableModels() []interface{} {
	return []interface{}{
		&entity.User{},
		&entity.TravelCard{},
		&entity.Comment{},
		&entity.Notification{},
		&entity.Activity{},
		&entity.FeedPost{},
		&entity.PublishedActivity{},
		&entity.Conversation{},
		&entity.Message{},
	}
}

// Open establishes the SQLite connection and enforces the schema version,
// creating the schema when the store is new or stale. The single open
// connection serializes writes.
func Open(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := ensureSchema(db, logger); err != nil {
		return nil, err
	}

	logger.Info("store opened", zap.String("path", path), zap.Int("schema_version", SchemaVersion))
	return db, nil
}

func ensureSchema(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(&storeMeta{}); err != nil {
		return err
	}

	var meta storeMeta
	err := db.Where("id = ?", 1).Take(&meta).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return createSchema(db, logger)
	case err != nil:
		return err
	}

	if meta.SchemaVersion != SchemaVersion {
		logger.Warn("schema version mismatch, recreating store",
			zap.Int("persisted", meta.SchemaVersion),
			zap.Int("expected", SchemaVersion))
		if err := dropSchema(db); err != nil {
			return err
		}
		return createSchema(db, logger)
	}

	// A matching version means this binary wrote the persisted structure.
	// Structural drift requires a version bump and goes through the recreate
	// path above, never through an in-place migration.
	return nil
}

func createSchema(db *gorm.DB, logger *zap.Logger) error {
	models := append([]interface{}{&storeMeta{}}, tableModels()...)
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	meta := storeMeta{ID: 1, SchemaVersion: SchemaVersion, CreatedAtMs: time.Now().UnixMilli()}
	if err := db.Save(&meta).Error; err != nil {
		return err
	}
	logger.Info("schema created", zap.Int("schema_version", SchemaVersion))
	return nil
}

func dropSchema(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, model := range tableModels() {
		if err := migrator.DropTable(model); err != nil {
			return err
		}
	}
	return migrator.DropTable(&storeMeta{})
}
