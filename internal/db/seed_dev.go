package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Origin pre-registers a camera device at this address so a local
	// validator can talk to the service immediately. Empty skips it.
	Origin string
}

// SeedDev inserts a minimal working dataset: three zones, one active
// camera device, and one active subject with a grant for the device's
// zone. Subjects start without embeddings; enrollment writes those.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	zones := []struct {
		code int
		name string
	}{
		{1, "Recepción"},
		{2, "Administración"},
		{3, "Informática"},
	}
	for _, z := range zones {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO zones(zone_code, name, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?);`, z.code, z.name, now, now); err != nil {
			return fmt.Errorf("seed zone %d: %w", z.code, err)
		}
	}

	if opt.Origin != "" {
		if _, err := db.ExecContext(ctx, `
INSERT INTO devices(name, origin, zone_code, status, registered_at_ms, updated_at_ms)
VALUES ('Dev Camera', ?, 3, 'active', ?, ?)
ON CONFLICT(origin) DO UPDATE SET
  status = 'active',
  updated_at_ms = excluded.updated_at_ms;
`, opt.Origin, now, now); err != nil {
			return fmt.Errorf("seed device: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO subjects(subject_id, first_name, last_name, job_title, active, created_at_ms, updated_at_ms)
VALUES (1, 'Dev', 'Subject', 'Tester', 1, ?, ?);`, now, now); err != nil {
		return fmt.Errorf("seed subject: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT INTO zone_grants(subject_id, zone_code, active, granted_at_ms, updated_at_ms)
VALUES (1, 3, 1, ?, ?)
ON CONFLICT(subject_id, zone_code) DO UPDATE SET
  active = 1,
  updated_at_ms = excluded.updated_at_ms;
`, now, now); err != nil {
		return fmt.Errorf("seed grant: %w", err)
	}

	return nil
}
