package memory

import (
	"context"
	"sync"
)

type grantKey struct {
	subjectID int64
	zoneCode  int
}

type GrantStore struct {
	mu     sync.RWMutex
	active map[grantKey]struct{}
}

func NewGrantStore() *GrantStore {
	return &GrantStore{active: make(map[grantKey]struct{})}
}

// Grant activates the (subject, zone) pair. Revoke deactivates it, which
// is indistinguishable from the row never existing.
func (s *GrantStore) Grant(subjectID int64, zoneCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[grantKey{subjectID, zoneCode}] = struct{}{}
}

func (s *GrantStore) Revoke(subjectID int64, zoneCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, grantKey{subjectID, zoneCode})
}

func (s *GrantStore) IsGranted(_ context.Context, subjectID int64, zoneCode int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.active[grantKey{subjectID, zoneCode}]
	return ok, nil
}
