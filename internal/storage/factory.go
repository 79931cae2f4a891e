package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/migrate"
)

// Open constructs a Storage based on the given configuration.
func Open(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (Storage, error) {
	drv := cfg.Driver
	if drv == "" {
		drv = "file"
	}
	switch drv {
	case "file":
		log.Info().Str("path", cfg.DSN).Msg("storage: using json file backend")
		return NewFileStorage(cfg.DSN), nil

	case "memory":
		log.Info().Msg("storage: using in-memory backend")
		return NewMemory(), nil

	case "sqlite", "postgres":
		log.Info().Str("driver", drv).Msg("storage: using gorm backend")
		st, err := NewGormStorage(drv, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		return st, nil

	case "postgrespool":
		log.Info().Msg("storage: using pgx pool backend")
		if err := migrate.Up(ctx, drv, cfg.DSN); err != nil {
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		return OpenPostgresPool(ctx, cfg.DSN)

	case "redis":
		log.Info().Str("key", cfg.RedisKey).Msg("storage: using redis backend")
		return NewRedisStorage(ctx, cfg.DSN, cfg.RedisKey)

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}
}
