// Package database opens the entity store: Postgres when DATABASE_URL is
// set (production), a local sqlite file otherwise (development).
package database

import (
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clawstreetbets/config"
)

// Open connects to the store selected by the configuration.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	if cfg.DatabaseURL != "" {
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	}
	path := filepath.Join(cfg.DatabaseDir, "clawstreetbets.db")
	return gorm.Open(sqlite.Open(path), gormCfg)
}
