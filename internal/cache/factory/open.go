package factory

import (
	"context"
	"fmt"
	"io"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/iTrooz/proximate/internal/cache/pool"
	"github.com/iTrooz/proximate/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Components is a pool and the adapter bound to it, whatever the backend
type Components struct {
	Pool    cache.Pool
	Adapter cache.Adapter
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var noopCloser = closerFunc(func() error { return nil })

// Open builds the backend selected by cfg. The closer releases its connections.
func Open(ctx context.Context, cfg config.CacheConfig) (Components, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		fc, err := Build(cfg.Path)
		if err != nil {
			return Components{}, nil, err
		}
		logrus.Infof("Using file cache at %s", cfg.Path)
		return Components{Pool: fc.Pool, Adapter: fc.Adapter}, noopCloser, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return Components{}, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		redisPool := pool.NewRedis(client, cfg.Redis.Prefix)
		logrus.Infof("Using redis cache at %s (prefix %s)", cfg.Redis.Addr, cfg.Redis.Prefix)
		return Components{Pool: redisPool, Adapter: cache.NewEnumerating().SetPool(redisPool)}, client, nil

	case config.BackendSQLite:
		sqlitePool, err := pool.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return Components{}, nil, err
		}
		logrus.Infof("Using sqlite cache at %s", cfg.SQLite.Path)
		return Components{Pool: sqlitePool, Adapter: cache.NewEnumerating().SetPool(sqlitePool)}, sqlitePool, nil

	default:
		return Components{}, nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}
