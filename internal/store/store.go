// Package store keeps each visitor session's UI state in memory.
package store

import (
	"sync"

	"github.com/fairyhunter13/storefront/internal/cart"
)

type Store struct {
	mu sync.RWMutex
	m  map[string]cart.State
}

func New() *Store {
	return &Store{m: make(map[string]cart.State)}
}

// Get returns the state of session id; unknown sessions get the zero State.
func (s *Store) Get(id string) cart.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[id]
}

// Update replaces the state of session id with fn applied to it and returns
// the new state.
func (s *Store) Update(id string, fn func(cart.State) cart.State) cart.State {
	if id == "" {
		return cart.State{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.m[id])
	s.m[id] = next
	return next
}

// Len is the number of sessions that have changed their state at least once.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
