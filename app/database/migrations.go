package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/lysyi3m/rss-relay/app/errs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsTable = "schema_migrations"

// RunMigrations brings the pushed_items schema up to date and reports the
// resulting schema version. A schema left dirty by an interrupted migration
// is an error; it needs manual repair before the relay can store anything.
func RunMigrations(db *DB) (uint, bool, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	// m.Close is not called: the sqlite driver would close db with it.

	before, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("%w: failed to read schema version: %w", errs.ErrPersistence, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, false, fmt.Errorf("%w: failed to migrate schema: %w", errs.ErrPersistence, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, false, fmt.Errorf("%w: failed to read schema version: %w", errs.ErrPersistence, err)
	}
	if dirty {
		return version, dirty, fmt.Errorf("%w: schema version %d is dirty", errs.ErrPersistence, version)
	}

	if version != before {
		slog.Info("Schema migrated", "from", before, "to", version)
	}

	return version, dirty, nil
}

func newMigrator(db *DB) (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create sqlite migration driver: %w", errs.ErrPersistence, err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read embedded migrations: %w", errs.ErrPersistence, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create migrator: %w", errs.ErrPersistence, err)
	}

	return m, nil
}
