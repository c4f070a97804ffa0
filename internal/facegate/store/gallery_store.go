package store

import "context"

// GallerySubject is one enrolled subject and its reference embeddings.
// Embeddings are stored as the enrollment pipeline wrote them; the matcher
// re-normalizes each vector before comparing.
type GallerySubject struct {
	SubjectID   int64
	DisplayName string
	JobTitle    string
	Embeddings  [][]float64
}

type GalleryStore interface {
	// ActiveSubjects returns every active subject that has at least one
	// reference embedding, in stable enrollment order.
	ActiveSubjects(ctx context.Context) ([]GallerySubject, error)
}
