package main

import (
	"context"
	"fmt"
	"strings"

	"stockwatch/internal/config"
	"stockwatch/internal/storage"
	"stockwatch/internal/storage/file"
	"stockwatch/internal/storage/postgres"
	"stockwatch/internal/storage/sqlite"
)

// openStore selects the persistence backend named by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config) (storage.Storer, error) {
	switch driver := strings.ToLower(strings.TrimSpace(cfg.StoreDriver)); driver {
	case "", "file":
		s, err := file.New(pathOr(cfg.StorePath, "urls.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.New(ctx, pathOr(cfg.StorePath, "stockwatch.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		return s, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func pathOr(p, fallback string) string {
	if strings.TrimSpace(p) == "" {
		return fallback
	}
	return p
}
