// Package app wires the configured storage driver, migrations and seed
// users into a ready-to-use application context.
package app

import (
	"context"
	"fmt"

	"taskdeck/internal/auth"
	"taskdeck/internal/config"
	"taskdeck/internal/db"
	"taskdeck/internal/engine"
	"taskdeck/internal/migrate"
	"taskdeck/internal/store"
	"taskdeck/internal/store/memory"
	"taskdeck/internal/store/sqlite"
)

type App struct {
	Config   *config.Config
	Store    store.Store
	Engine   engine.Engine
	Resolver auth.Resolver
}

// Open builds the application from config: opens the store, applies
// migrations for sqlite, and seeds users. Close the returned App when
// done.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	var s store.Store
	switch cfg.Storage.Driver {
	case "memory":
		s = memory.New()
	case "sqlite":
		conn, err := db.Open(db.Config{Workspace: cfg.Storage.Workspace})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := migrate.Migrate(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s = sqlite.Repo{DB: conn}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if users := cfg.SeedUsers(); len(users) > 0 {
		if err := s.SeedUsers(ctx, users); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed users: %w", err)
		}
	}

	return &App{
		Config:   cfg,
		Store:    s,
		Engine:   engine.New(s),
		Resolver: auth.NewResolver(s, cfg.JWTSecret(), cfg.TokenTTL()),
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
