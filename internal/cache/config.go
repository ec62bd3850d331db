package cache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kitpress-go/framework/internal/config"
)

// Config mirrors the "cache" config document.
type Config struct {
	Driver          string
	Prefix          string
	TTL             time.Duration
	CleanupInterval time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

// ConfigFrom reads the cache document from store. An empty prefix defaults
// to namespace so tenants sharing a Redis never collide.
func ConfigFrom(store *config.Store, namespace string) Config {
	cfg := Config{
		Driver:          store.GetString("cache.driver", "memory"),
		Prefix:          store.GetString("cache.prefix"),
		TTL:             store.GetDuration("cache.ttl", 10*time.Minute),
		CleanupInterval: store.GetDuration("cache.cleanup_interval", 30*time.Minute),
		RedisAddr:       store.GetString("cache.redis.addr", "127.0.0.1:6379"),
		RedisPassword:   store.GetString("cache.redis.password"),
		RedisDB:         store.GetInt("cache.redis.db"),
	}
	if cfg.Prefix == "" {
		cfg.Prefix = namespace
	}
	return cfg
}

// Open creates the cache selected by cfg.Driver. The Redis client connects
// lazily on first use.
func Open(cfg Config, logger *slog.Logger) (*Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return New(NewMemoryStore(cfg.TTL, cfg.CleanupInterval), logger), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return New(NewRedisStore(client, cfg.Prefix, cfg.TTL), logger), nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}
