// Package database opens the store connection pool and applies embedded
// SQL migrations.
package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the store named by databaseURL. Postgres DSNs get the
// postgres driver; anything else is treated as a SQLite path, which keeps
// local development broker-free.
func Open(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded SQL migrations under dir to a Postgres
// store. SQLite stores (tests, local runs) fall back to GORM AutoMigrate,
// driven by the models the caller passes.
func Migrate(db *gorm.DB, migrations fs.FS, dir string, autoModels ...interface{}) error {
	if db.Dialector.Name() != "postgres" {
		if err := db.AutoMigrate(autoModels...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}

	source, err := iofs.New(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Database migrations applied")
	return nil
}
