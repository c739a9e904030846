// Package memory provides an in-process account store for development and
// tests. It reproduces the backing store's contract, including the quirk of
// returning a non-nil placeholder record for unknown keys and ErrConflict on
// duplicate creates.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/idbridge/internal/federation"
	"github.com/dropDatabas3/idbridge/internal/store/core"
	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]core.User // keyed by email

	// Test hooks. CreateErr forces Create to fail; DropCreates makes Create
	// report success without writing, simulating a store that acknowledged a
	// write it never applied.
	CreateErr   error
	DropCreates bool
}

func New() *Store {
	return &Store{users: make(map[string]core.User)}
}

func (s *Store) Resolve(ctx context.Context, key string) (*federation.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	u, ok := s.users[key]
	s.mu.RUnlock()

	if !ok {
		// Placeholder record, no marker attribute.
		return &federation.Account{Attributes: map[string]string{"email": key}}, nil
	}
	return &federation.Account{
		UserID: u.ID,
		Attributes: map[string]string{
			federation.AccountMarkerKey: u.ID,
			"email":                     u.Email,
			"firstname":                 u.FirstName,
			"lastname":                  u.LastName,
			"created":                   u.CreatedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

func (s *Store) Create(ctx context.Context, id federation.NormalizedIdentity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if s.DropCreates {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id.Email]; exists {
		return core.ErrConflict
	}
	s.users[id.Email] = core.User{
		ID:        uuid.NewString(),
		Email:     id.Email,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		CreatedAt: time.Now(),
	}
	return nil
}

// Len reports the number of provisioned accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
