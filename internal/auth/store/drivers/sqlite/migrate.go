package sqlite

import (
	"errors"

	"github.com/aussiebroadwan/memoauth/internal/auth/store/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ApplyMigrations brings the schema up to date from the embedded migration
// files. The migrate instance is not closed because its driver would close
// the store's database with it.
func (s *Store) ApplyMigrations() error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return wrap("sqlite.ApplyMigrations: driver", err)
	}

	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return wrap("sqlite.ApplyMigrations: source", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return wrap("sqlite.ApplyMigrations: instance", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return wrap("sqlite.ApplyMigrations: up", err)
	}
	return nil
}
