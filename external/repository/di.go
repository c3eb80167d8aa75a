package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/bateponto/internal/config"
	"github.com/foxseedlab/bateponto/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

const databaseInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.UserRecordStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return OpenStore(cfg)
	})
}

// OpenStore builds the store selected by cfg.StoreDriver.
func OpenStore(cfg *config.Config) (repository.UserRecordStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StoreDriverFile:
		s, err := NewFileStore(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreDriverSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreDriverMemory:
		return NewMemoryStore(), nil
	case config.StoreDriverPostgres:
		p, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := RunMigration(ctx, p); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
		return NewPostgresStore(p), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
