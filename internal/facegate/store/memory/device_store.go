package memory

import (
	"context"
	"sync"
	"time"

	"github.com/facegate/server/internal/facegate/store"
)

type DeviceStore struct {
	mu      sync.RWMutex
	byID    map[int64]*store.DeviceRecord
	byOrigin map[string]int64
}

func NewDeviceStore(devices []store.DeviceRecord) *DeviceStore {
	s := &DeviceStore{
		byID:    make(map[int64]*store.DeviceRecord, len(devices)),
		byOrigin: make(map[string]int64, len(devices)),
	}
	for i := range devices {
		d := devices[i]
		s.byID[d.DeviceID] = &d
		s.byOrigin[d.Origin] = d.DeviceID
	}
	return s
}

func (s *DeviceStore) DeviceByOrigin(_ context.Context, origin string) (*store.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byOrigin[origin]
	if !ok {
		return nil, nil
	}
	d := *s.byID[id]
	return &d, nil
}

func (s *DeviceStore) MarkSeen(_ context.Context, deviceID int64, t time.Time) error {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.byID[deviceID]; ok {
		d.LastCheck = &t
	}
	return nil
}
