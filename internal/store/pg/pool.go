package pg

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PoolManager administra Stores por DSN.
// Thread-safe, usa singleflight para evitar creaciones duplicadas.
type PoolManager struct {
	stores sync.Map // dsn → *Store
	sf     singleflight.Group
	tuning Tuning
}

// NewPoolManager crea un manager con el tuning dado.
func NewPoolManager(t Tuning) *PoolManager {
	return &PoolManager{tuning: t}
}

// Get obtiene un Store existente o crea uno nuevo para el DSN.
func (m *PoolManager) Get(ctx context.Context, dsn string) (*Store, error) {
	if v, ok := m.stores.Load(dsn); ok {
		return v.(*Store), nil
	}

	// Usar singleflight para evitar creaciones paralelas
	v, err, _ := m.sf.Do(dsn, func() (interface{}, error) {
		if v, ok := m.stores.Load(dsn); ok {
			return v.(*Store), nil
		}
		st, err := New(ctx, dsn, m.tuning)
		if err != nil {
			return nil, err
		}
		m.stores.Store(dsn, st)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// CloseAll cierra todos los pools.
func (m *PoolManager) CloseAll() {
	m.stores.Range(func(key, value interface{}) bool {
		value.(*Store).Close()
		m.stores.Delete(key)
		return true
	})
}
