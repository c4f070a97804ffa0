package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

type GrantStore struct {
	db *sql.DB
}

func NewGrantStore(db *sql.DB) *GrantStore {
	return &GrantStore{db: db}
}

// IsGranted checks for an active grant row. An inactive row for the pair is
// the same as no row at all.
func (s *GrantStore) IsGranted(ctx context.Context, subjectID int64, zoneCode int) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
SELECT 1
FROM zone_grants
WHERE subject_id = ? AND zone_code = ? AND active = 1;
`, subjectID, zoneCode).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsGranted query: %w", err)
	}
	return true, nil
}
