package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache implementa el facade de cache sobre Redis. Las operaciones usan un
// timeout corto propio: el cache nunca debe bloquear un login.
type Cache struct {
	client *redis.Client
	prefix string
}

// Config configuración del backend Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

const opTimeout = 2 * time.Second

// New crea el cache y verifica la conexión.
func New(cfg Config) (*Cache, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return &Cache{client: rdb, prefix: cfg.Prefix}, nil
}

func (c *Cache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *Cache) Get(k string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	v, err := c.client.Get(ctx, c.key(k)).Bytes()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (c *Cache) Set(k string, v []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_ = c.client.Set(ctx, c.key(k), v, ttl).Err()
}

func (c *Cache) Delete(k string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_ = c.client.Del(ctx, c.key(k)).Err()
}

// Close cierra la conexión.
func (c *Cache) Close() error { return c.client.Close() }
