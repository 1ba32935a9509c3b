package app

import (
	"context"
	"fmt"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store/drivers/postgres"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store/drivers/sqlite"
)

// OpenStore connects the configured driver and applies pending migrations.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case DriverPostgres:
		st, err = postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.DatabaseURL,
			MaxConns:        cfg.DatabaseMaxConn,
			MinConns:        cfg.DatabaseMinConn,
			MaxConnLifetime: cfg.DatabaseConnTTL,
		})
	default:
		st, err = sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DatabaseFile))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return st, nil
}
