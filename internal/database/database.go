package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Conceptual-Machines/magda-harmony/internal/models"
)

// Connect opens the postgres database. An empty URL disables persistence and
// returns a nil handle.
func Connect(url string) (*gorm.DB, error) {
	if url == "" {
		log.Println("⚠️  Database not configured (DATABASE_URL not set), arrangement runs will not be stored")
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connected")
	return db, nil
}

// Migrate creates or updates the schema. A nil handle is a no-op.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(&models.ArrangementRun{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	log.Println("✅ Database migrated")
	return nil
}

// Ping reports whether the database answers
func Ping(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not configured")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
