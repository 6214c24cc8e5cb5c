package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/aitools-hub/catalog-cli/internal/store"
)

// errStoreDisabled is returned by commands that need run history when the
// store driver is "none".
var errStoreDisabled = eris.New("run history is disabled (store.driver=none)")

// initStore opens and migrates the configured run-history store. It returns
// a nil store when the driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "catalog-runs.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	st = store.WithRetry(st, cfg.StoreRetry())
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// requireStore is initStore for commands that cannot run without history.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errStoreDisabled
	}
	return st, nil
}
