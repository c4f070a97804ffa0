// Package authz answers "may this subject enter this zone" from the grant
// relation. It is deliberately independent of the matcher so authorization
// rules are testable without biometric input.
package authz

import (
	"context"

	"github.com/facegate/server/internal/facegate/store"
)

type Engine struct {
	grants store.GrantStore
}

func New(grants store.GrantStore) *Engine {
	return &Engine{grants: grants}
}

// Authorize reports whether an active grant exists for (subject, zone).
// There is no implicit default-allow: a subject with zero grants is denied
// for every zone.
func (e *Engine) Authorize(ctx context.Context, subjectID int64, zoneCode int) (bool, error) {
	return e.grants.IsGranted(ctx, subjectID, zoneCode)
}
