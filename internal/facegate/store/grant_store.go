package store

import "context"

type GrantStore interface {
	// IsGranted reports whether an active grant row exists for the
	// (subject, zone) pair. Inactive rows never authorize.
	IsGranted(ctx context.Context, subjectID int64, zoneCode int) (bool, error)
}
