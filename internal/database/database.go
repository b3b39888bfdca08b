// Package database provides helpers for connecting to the store and running migrations.
// This file has two responsibilities:
//  1. Opening the single shared GORM connection every handler reuses
//  2. Running the embedded SQL migration files to keep the PostgreSQL schema up to date
package database

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/golang-migrate/migrate/v4"
	// Registers the postgres database driver for migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trentd187/sports-club/internal/config"
	"github.com/trentd187/sports-club/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Connect opens the connection described by cfg. PostgreSQL is the default;
// DB_DRIVER=sqlite opens a local file instead (and the schema is created with
// AutoMigrate, since the SQL migrations are PostgreSQL-specific).
func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	if cfg.UsesSQLite() {
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("migrating sqlite: %w", err)
		}
		return db, nil
	}

	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.URL,
		PreferSimpleProtocol: true,
	}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// OpenSQLite opens a sqlite database at dsn. Tests pass an in-memory DSN such
// as "file:name?mode=memory&cache=shared".
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	return db, nil
}

// gormConfig keeps GORM quiet (requests are logged by the HTTP layer) and
// turns driver-specific duplicate-key errors into gorm.ErrDuplicatedKey.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
		TranslateError: true,
	}
}

// RunMigrations applies any pending "up" migrations embedded in the binary.
// migrate tracks applied versions in schema_migrations, so running it on every
// start is safe. migrate.ErrNoChange just means there was nothing to do.
func RunMigrations(dsn string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
