package app

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/internal/auth/store/drivers/mongodb"
	"github.com/aussiebroadwan/memoauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/memoauth/internal/auth/store/drivers/sqlite"
)

// OpenStore connects the configured driver and applies its migrations.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.Database.Driver {
	case DriverSQLite:
		db, err = sqlite.NewStore(sqlite.FileDSN(cfg.Database.File))
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, cfg.Database.URL)
	case DriverMongoDB:
		db, err = mongodb.New(ctx, cfg.Database.URL, cfg.Database.MongoDatabase)
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", ErrConfiguration, cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}
