package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Config selects and configures a KV backend.
type Config struct {
	Driver string // sqlite|redis|postgres|memory

	Path string // sqlite

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string
}

// Open initializes the configured backend. An empty driver means sqlite.
func Open(ctx context.Context, cfg Config) (KV, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		return OpenSQLite(ctx, cfg.Path)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedis(ctx, rdb, "portbot:")
	case "postgres", "postgresql":
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}
