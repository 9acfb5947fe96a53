package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/skillsync/internal/platform/logger"
)

// OpenSQLite opens a local sqlite database. It backs local runs and tests;
// pgvector search is not available on it.
func OpenSQLite(dsn string, logg *logger.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "file:skillsync.db?_foreign_keys=on"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLog().LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// one writer at a time; keeps shared-cache memory databases consistent too
	sqlDB.SetMaxOpenConns(1)
	if logg != nil {
		logg.With("service", "SQLite").Debug("opened", "dsn", dsn)
	}
	return db, nil
}
