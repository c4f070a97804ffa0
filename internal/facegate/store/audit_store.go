package store

import (
	"context"
	"time"
)

// Audit event column values, carried over from the upstream event log:
// event type I (entry) / O (exit), access result A (approved) / D (denied).
const (
	EventTypeEntry = "I"
	EventTypeExit  = "O"

	ResultApproved = "A"
	ResultDenied   = "D"
)

// AuditEventRecord captures a single access decision for the audit log.
// SubjectID is nil for unidentified attempts (no face, unknown face,
// unregistered device).
type AuditEventRecord struct {
	EventID      string // uuid
	SubjectID    *int64
	EventType    string
	Result       string
	AttemptCount int
	OccurredAt   time.Time
	DeviceID     *int64
	ZoneCode     *int
	CaptureImage []byte
	Notes        string
}

// AuditEventStore persists access decisions as an append-only audit log.
type AuditEventStore interface {
	RecordEvent(ctx context.Context, rec AuditEventRecord) error
}
