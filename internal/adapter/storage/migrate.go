package storage

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate brings the schema up to the latest embedded version for the
// database's dialect.
func Migrate(db *DB) error {
	var (
		driver database.Driver
		err    error
	)
	switch db.dialect.Name {
	case DriverMySQL:
		driver, err = migratemysql.WithInstance(db.sql, &migratemysql.Config{})
	case DriverSQLite:
		driver, err = migratesqlite.WithInstance(db.sql, &migratesqlite.Config{})
	case DriverPostgres:
		driver, err = migratepostgres.WithInstance(db.sql, &migratepostgres.Config{})
	default:
		return fmt.Errorf("no migrations for dialect %q", db.dialect.Name)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+db.dialect.Name)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	// m.Close would also close db.sql, which the stores keep using.
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, db.dialect.Name, driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
