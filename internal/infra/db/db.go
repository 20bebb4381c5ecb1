package db

import (
	"context"
	"sync"

	"github.com/ecomanager/ecomanager/internal/infra/config"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Handles owns the process-wide database connections. Connections are
// opened lazily on first use and reused afterwards; concurrent first
// callers are collapsed into one dial via singleflight so a burst of cold
// requests cannot open duplicate pools.
type Handles struct {
	cfg *config.Config

	mu    sync.RWMutex
	group singleflight.Group
	gorm  *gorm.DB
	redis *redis.Client
}

func New(cfg *config.Config) *Handles {
	return &Handles{cfg: cfg}
}

func (h *Handles) Gorm(ctx context.Context) (*gorm.DB, error) {
	h.mu.RLock()
	if h.gorm != nil {
		defer h.mu.RUnlock()
		return h.gorm, nil
	}
	h.mu.RUnlock()

	v, err, _ := h.group.Do("gorm", func() (interface{}, error) {
		conn, err := gorm.Open(postgres.Open(h.cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.gorm = conn
		h.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}

func (h *Handles) Redis(ctx context.Context) (*redis.Client, error) {
	h.mu.RLock()
	if h.redis != nil {
		defer h.mu.RUnlock()
		return h.redis, nil
	}
	h.mu.RUnlock()

	v, err, _ := h.group.Do("redis", func() (interface{}, error) {
		cli := redis.NewClient(&redis.Options{
			Addr:     h.cfg.RedisAddress,
			Password: h.cfg.RedisPassword,
			DB:       h.cfg.RedisDB,
		})
		if err := cli.Ping(ctx).Err(); err != nil {
			cli.Close()
			return nil, err
		}
		h.mu.Lock()
		h.redis = cli
		h.mu.Unlock()
		return cli, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*redis.Client), nil
}

// Close releases whatever was actually opened.
func (h *Handles) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	if h.gorm != nil {
		if sqlDB, err := h.gorm.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		h.gorm = nil
	}
	if h.redis != nil {
		if err := h.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		h.redis = nil
	}
	return firstErr
}
