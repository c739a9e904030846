// Package rate limita intentos de resolución por cliente. Una assertion
// robada no debería poder martillar el endpoint hasta acertar; el límite es
// por key (IP del cliente) con ventana fija.
package rate

import (
	"context"
	"time"
)

// Result describe el estado del contador tras un intento.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
	Hits       int64
}

// Limiter decide si un intento identificado por key pasa o se frena.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// NopLimiter deja pasar todo. Se usa cuando el límite está deshabilitado.
type NopLimiter struct{}

func (NopLimiter) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}
