package storage

import (
	"context"
	"fmt"

	"comps-scraper/config"
)

// Open connects to the backend selected by cfg.StorageDriver. Credentials are
// checked before any connection is attempted.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pw, err := NewPostgresWriter(ctx, cfg.DatabaseURL, cfg.Table)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := pw.EnsureSchema(ctx); err != nil {
				pw.Close()
				return nil, err
			}
		}
		return pw, nil
	case config.DriverSupabase:
		return NewRestWriter(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Table, cfg.StorageTimeout), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}
