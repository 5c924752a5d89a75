package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/holdings-cli/internal/report"
)

// openStore opens the configured store backend and runs migrations.
func openStore(ctx context.Context) (report.Store, error) {
	var (
		st  report.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = report.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = report.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
