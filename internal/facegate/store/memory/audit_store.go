package memory

import (
	"context"
	"sync"

	"github.com/facegate/server/internal/facegate/store"
)

// AuditEventStore is an in-memory append-only audit log for tests and dev.
type AuditEventStore struct {
	mu     sync.Mutex
	events []store.AuditEventRecord
}

func NewAuditEventStore() *AuditEventStore {
	return &AuditEventStore{}
}

func (s *AuditEventStore) RecordEvent(_ context.Context, rec store.AuditEventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, rec)
	return nil
}

// Events returns a copy of all recorded events. Test-only helper.
func (s *AuditEventStore) Events() []store.AuditEventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AuditEventRecord, len(s.events))
	copy(out, s.events)
	return out
}
