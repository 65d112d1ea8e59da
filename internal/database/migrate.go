package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending schema migration for the pool's dialect.
// It is safe to run repeatedly; an up-to-date schema is not an error.
func Migrate(db *DB) error {
	src, err := iofs.New(migrations, "migrations/"+db.Driver)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer src.Close()

	var driver migratedb.Driver
	switch db.Driver {
	case DriverSQLite:
		driver, err = sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	case DriverPostgres:
		driver, err = pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", db.Driver)
	}
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	// Closing m would also close db.DB, which the caller still owns.
	m, err := migrate.NewWithInstance("iofs", src, db.Driver, driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
