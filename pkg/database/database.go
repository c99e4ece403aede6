package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"voicebox/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the metadata store. The backend is fixed for the process
// lifetime: Postgres when DATABASE_URL is set, otherwise sqlite (a file in
// production, in-memory everywhere else).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dial, sqliteBacked, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	logMode := logger.Warn
	if !cfg.IsProduction() {
		logMode = logger.Info
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}

	// Connection pool settings. sqlite writes are serialized through a single
	// connection to avoid SQLITE_BUSY under concurrent uploads.
	if sqliteBacked {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

func dialector(cfg *config.Config) (gorm.Dialector, bool, error) {
	if cfg.Database.URL != "" {
		return postgres.Open(cfg.Database.URL), false, nil
	}
	if cfg.IsProduction() {
		if dir := filepath.Dir(cfg.Database.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, false, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.Database.Path), true, nil
	}
	return sqlite.Open(":memory:"), true, nil
}

// HealthCheck pings the underlying connection.
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
