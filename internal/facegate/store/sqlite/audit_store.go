package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/facegate/server/internal/db"
	"github.com/facegate/server/internal/facegate/store"
)

type AuditEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAuditEventStore(db *sql.DB, writer *dbpkg.Worker) *AuditEventStore {
	return &AuditEventStore{db: db, writer: writer}
}

func (s *AuditEventStore) RecordEvent(ctx context.Context, rec store.AuditEventRecord) error {
	if rec.EventID == "" {
		rec.EventID = uuid.NewString()
	}
	if rec.EventType == "" {
		rec.EventType = store.EventTypeEntry
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	if rec.AttemptCount <= 0 {
		rec.AttemptCount = 1
	}
	occurredMs := rec.OccurredAt.UTC().UnixMilli()

	var subjectID any
	if rec.SubjectID != nil {
		subjectID = *rec.SubjectID
	}
	var deviceID any
	if rec.DeviceID != nil {
		deviceID = *rec.DeviceID
	}
	var zoneCode any
	if rec.ZoneCode != nil {
		zoneCode = *rec.ZoneCode
	}
	var capture any
	if len(rec.CaptureImage) > 0 {
		capture = rec.CaptureImage
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO audit_events(
  event_id, subject_id, event_type, access_result, attempt_count,
  occurred_at_ms, device_id, zone_code, capture_image, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.EventID, subjectID, rec.EventType, rec.Result, rec.AttemptCount,
			occurredMs, deviceID, zoneCode, capture, rec.Notes,
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}
