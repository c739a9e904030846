package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter es el equivalente in-process del RedisLimiter, para
// despliegues de una sola réplica o desarrollo. Misma semántica de ventana
// fija.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   map[string]*windowCounter
	max    int64
	window time.Duration
}

type windowCounter struct {
	start time.Time
	count int64
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   make(map[string]*windowCounter),
		max:    int64(max),
		window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now()
	winStart := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.hits[key]
	if !ok || c.start.Before(winStart) {
		c = &windowCounter{start: winStart}
		l.hits[key] = c
		// Barrido oportunista de ventanas viejas para no crecer sin límite.
		if len(l.hits) > 4096 {
			for k, v := range l.hits {
				if v.start.Before(winStart) {
					delete(l.hits, k)
				}
			}
		}
	}
	c.count++

	res := Result{
		Allowed:   c.count <= l.max,
		Remaining: max64(l.max-c.count, 0),
		Hits:      c.count,
	}
	if !res.Allowed {
		res.RetryAfter = c.start.Add(l.window).Sub(now)
	}
	return res, nil
}
