// Package cache provee una abstracción chica de cache byte-oriented con
// soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
package cache

import (
	"time"

	"github.com/dropDatabas3/idbridge/internal/cache/memory"
	"github.com/dropDatabas3/idbridge/internal/cache/redis"
)

// Cache define las operaciones mínimas que consumen los clientes
// (lookups de provider, dedupe de rondas repetidas).
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}

// Config configuración para crear un cache.
type Config struct {
	Kind       string // "memory" | "redis"
	DefaultTTL time.Duration

	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
}

// New crea un cache según la configuración. Un Kind desconocido cae a memory.
func New(cfg Config) (Cache, error) {
	switch cfg.Kind {
	case "redis":
		return redis.New(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		return memory.New(cfg.DefaultTTL), nil
	}
}
