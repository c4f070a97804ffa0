package memory

import (
	"context"
	"sync"

	"github.com/facegate/server/internal/facegate/store"
)

// GalleryStore serves a fixed gallery in insertion order, matching the
// stable enrollment order the sqlite implementation returns.
type GalleryStore struct {
	mu       sync.RWMutex
	subjects []store.GallerySubject
}

func NewGalleryStore(subjects []store.GallerySubject) *GalleryStore {
	return &GalleryStore{subjects: subjects}
}

func (s *GalleryStore) ActiveSubjects(_ context.Context) ([]store.GallerySubject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.GallerySubject, len(s.subjects))
	copy(out, s.subjects)
	return out, nil
}
