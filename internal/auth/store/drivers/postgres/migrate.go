package postgres

import (
	"database/sql"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/aussiebroadwan/memoauth/internal/auth/store/drivers/postgres/migrations"
)

var openMigrationDB = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }

// ApplyMigrations brings the schema up to date from the embedded files.
//
// The migrate driver pins a connection and closes its database handle on
// Close, so migrations run on a dedicated handle when the DSN is known.
func (s *Store) ApplyMigrations() error {
	db := s.db
	if s.dsn != "" {
		own, err := openMigrationDB(s.dsn)
		if err != nil {
			return wrap("postgres.ApplyMigrations: open", err)
		}
		db = own
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		if s.dsn != "" {
			_ = db.Close()
		}
		return wrap("postgres.ApplyMigrations: driver", err)
	}
	// From here the driver owns the dedicated handle and closes it.
	closeDriver := func() {
		if s.dsn != "" {
			_ = driver.Close()
		}
	}

	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		closeDriver()
		return wrap("postgres.ApplyMigrations: source", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		_ = src.Close()
		closeDriver()
		return wrap("postgres.ApplyMigrations: instance", err)
	}
	if s.dsn != "" {
		defer func() { _, _ = m.Close() }()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return wrap("postgres.ApplyMigrations: up", err)
	}
	return nil
}
