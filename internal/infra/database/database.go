// Package database selects and opens the lead store backend.
package database

import (
	"fmt"
	"strings"

	"github.com/kursadbilgin/outreach-pipeline/internal/infra/postgresql"
	"github.com/kursadbilgin/outreach-pipeline/internal/infra/postgresql/migrations"
	"github.com/kursadbilgin/outreach-pipeline/internal/infra/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the configured backend and applies pending migrations.
func Open(driver string, dsn string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		db, err = postgresql.NewPostgres(dsn, postgresql.PoolOptions{})
	case DriverSQLite, "":
		db, err = sqlite.NewSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := migrations.Migrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	return db, nil
}
