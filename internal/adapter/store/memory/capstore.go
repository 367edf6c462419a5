// Package memory keeps frequency caps in process memory. It backs tests and
// deployments without Redis; entries do not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
)

type CapStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]struct{}
}

func NewCapStore() *CapStore {
	return &CapStore{scopes: make(map[string]map[string]struct{})}
}

func (s *CapStore) HasCap(_ context.Context, scope entity.CapScope, promotionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.scopes[scope.Key()][promotionID]
	return ok, nil
}

func (s *CapStore) SetCap(_ context.Context, scope entity.CapScope, promotionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope.Key()
	if s.scopes[k] == nil {
		s.scopes[k] = make(map[string]struct{})
	}
	s.scopes[k][promotionID] = struct{}{}
	return nil
}

func (s *CapStore) ClearCap(_ context.Context, scope entity.CapScope, promotionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope.Key()
	delete(s.scopes[k], promotionID)
	if len(s.scopes[k]) == 0 {
		delete(s.scopes, k)
	}
	return nil
}

func (s *CapStore) DropScope(_ context.Context, scope entity.CapScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes, scope.Key())
	return nil
}

// Len returns the number of non-empty scopes.
func (s *CapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scopes)
}
