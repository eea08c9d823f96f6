// Package store is the persistence layer: an embedded SQLite database in
// WAL mode behind gorm, with a TTL cache in front of hot reads. All
// operations return plain records; gorm types never leak to callers.
package store

import (
	"fmt"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/config"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// schemaMigration tracks which forward-only migrations have been applied.
// Migrations are idempotent and tolerate partial prior runs.
type schemaMigration struct {
	Version   int `gorm:"primaryKey"`
	AppliedAt time.Time
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// DSN builds the SQLite connection string with the tuning pragmas: WAL
// journaling, normal sync durability, enforced foreign keys, a
// memory-mapped region and a negative cache_size (KB units).
func DSN(path string, mmapSize int64, cacheKB int) string {
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=mmap_size(%d)&_pragma=cache_size(-%d)",
		path, mmapSize, cacheKB,
	)
}

// Open opens the database from the application configuration and runs the
// migrations.
func Open(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	dsn := DSN(cfg.Database.Path, cfg.Database.MmapSize, cfg.Database.CacheKB)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open database: %v", err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to access connection pool: %v", err))
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := Migrate(db, log); err != nil {
		return nil, err
	}

	log.Info("database ready", "path", cfg.Database.Path)
	return db, nil
}

// OpenInMemory opens a throwaway in-memory database with the schema
// applied. Used by tests.
func OpenInMemory(log *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, Migrate(db, log)
}

// Migrate applies the schema forward-only. Each migration checks whether
// its effect is already present, so re-running after a partial prior run is
// safe.
func Migrate(db *gorm.DB, log *logger.Logger) error {
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create migration table: %v", err))
	}

	migrations := []struct {
		version int
		apply   func(*gorm.DB) error
	}{
		{1, migrateBaseSchema},
		{2, migrateCampaignAIModel},
	}

	for _, m := range migrations {
		var applied int64
		if err := db.Model(&schemaMigration{}).Where("version = ?", m.version).Count(&applied).Error; err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to read migration state: %v", err))
		}
		if applied > 0 {
			continue
		}
		if err := m.apply(db); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("migration %d failed: %v", m.version, err))
		}
		if err := db.Create(&schemaMigration{Version: m.version, AppliedAt: time.Now()}).Error; err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to record migration %d: %v", m.version, err))
		}
		log.Info("applied schema migration", "version", m.version)
	}
	return nil
}

func migrateBaseSchema(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ModelChoice{},
		&models.Campaign{},
		&models.Character{},
		&models.Message{},
		&models.PerformanceLog{},
	)
}

// migrateCampaignAIModel adds campaigns.ai_model for databases created
// before the column existed. Guarded by introspection so it is a no-op on
// fresh schemas.
func migrateCampaignAIModel(db *gorm.DB) error {
	if db.Migrator().HasColumn(&models.Campaign{}, "ai_model") {
		return nil
	}
	return db.Migrator().AddColumn(&models.Campaign{}, "AIModel")
}
