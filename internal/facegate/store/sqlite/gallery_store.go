package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/facegate/server/internal/facegate/store"
)

// GalleryStore reads enrolled subjects and their reference embeddings.
// Embeddings are stored as a JSON array of vectors, exactly as the
// enrollment pipeline writes them.
type GalleryStore struct {
	db *sql.DB
}

func NewGalleryStore(db *sql.DB) *GalleryStore {
	return &GalleryStore{db: db}
}

// ActiveSubjects returns active subjects with at least one reference
// embedding, ordered by subject id so matching order is stable across
// calls.
func (s *GalleryStore) ActiveSubjects(ctx context.Context) ([]store.GallerySubject, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT subject_id, first_name, last_name, COALESCE(job_title, ''), embeddings
FROM subjects
WHERE active = 1 AND embeddings IS NOT NULL AND embeddings != '' AND embeddings != '[]'
ORDER BY subject_id;
`)
	if err != nil {
		return nil, fmt.Errorf("ActiveSubjects query: %w", err)
	}
	defer rows.Close()

	var out []store.GallerySubject
	for rows.Next() {
		var (
			subj      store.GallerySubject
			first     string
			last      string
			rawEmbeds string
		)
		if err := rows.Scan(&subj.SubjectID, &first, &last, &subj.JobTitle, &rawEmbeds); err != nil {
			return nil, fmt.Errorf("ActiveSubjects scan: %w", err)
		}
		subj.DisplayName = first + " " + last

		if err := json.Unmarshal([]byte(rawEmbeds), &subj.Embeddings); err != nil {
			// A corrupt enrollment blob should not take the gallery down.
			continue
		}
		out = append(out, subj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ActiveSubjects rows: %w", err)
	}
	return out, nil
}
