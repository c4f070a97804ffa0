package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/facegate/server/internal/db"
	"github.com/facegate/server/internal/facegate/store"
)

type DeviceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDeviceStore(db *sql.DB, writer *dbpkg.Worker) *DeviceStore {
	return &DeviceStore{db: db, writer: writer}
}

func (s *DeviceStore) DeviceByOrigin(ctx context.Context, origin string) (*store.DeviceRecord, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil, nil
	}

	var (
		rec       store.DeviceRecord
		lastCheck sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT d.device_id, d.name, d.origin, d.zone_code, z.name, d.status, d.last_check_ms
FROM devices d
JOIN zones z ON z.zone_code = d.zone_code
WHERE d.origin = ?;
`, origin).Scan(&rec.DeviceID, &rec.Name, &rec.Origin, &rec.ZoneCode, &rec.ZoneName, &rec.Status, &lastCheck)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("DeviceByOrigin query: %w", err)
	}

	if lastCheck.Valid {
		t := time.UnixMilli(lastCheck.Int64).UTC()
		rec.LastCheck = &t
	}
	return &rec, nil
}

func (s *DeviceStore) MarkSeen(ctx context.Context, deviceID int64, t time.Time) error {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE devices
SET last_check_ms = ?,
    updated_at_ms = ?
WHERE device_id = ?;
`, ms, ms, deviceID); err != nil {
			return fmt.Errorf("MarkSeen update device: %w", err)
		}
		return nil
	})
}
