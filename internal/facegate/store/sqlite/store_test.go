package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facegate/server/internal/facegate/store"
	sqlitestore "github.com/facegate/server/internal/facegate/store/sqlite"
)

// ── DeviceStore ──────────────────────────────────────────────────────────────

func TestDeviceStore_DeviceByOrigin(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	seedZone(t, conn, 3, "Informática")
	seedDevice(t, conn, "192.168.0.20", 3, "active")
	ds := sqlitestore.NewDeviceStore(conn, w)

	rec, err := ds.DeviceByOrigin(context.Background(), "192.168.0.20")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 3, rec.ZoneCode)
	assert.Equal(t, "Informática", rec.ZoneName)
	assert.Equal(t, store.DeviceActive, rec.Status)
	assert.Nil(t, rec.LastCheck)
}

func TestDeviceStore_UnknownOriginReturnsNil(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)

	rec, err := ds.DeviceByOrigin(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = ds.DeviceByOrigin(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestDeviceStore_MarkSeen(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	seedZone(t, conn, 3, "Informática")
	id := seedDevice(t, conn, "192.168.0.20", 3, "active")
	ds := sqlitestore.NewDeviceStore(conn, w)

	seen := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ds.MarkSeen(context.Background(), id, seen))

	rec, err := ds.DeviceByOrigin(context.Background(), "192.168.0.20")
	require.NoError(t, err)
	require.NotNil(t, rec.LastCheck)
	assert.Equal(t, seen, *rec.LastCheck)
}

// ── GrantStore ───────────────────────────────────────────────────────────────

func TestGrantStore_ActiveGrant(t *testing.T) {
	conn := openTestDB(t)
	seedZone(t, conn, 3, "Informática")
	subj := seedSubject(t, conn, "Ana", "Pérez", true, "")
	seedGrant(t, conn, subj, 3, true)
	gs := sqlitestore.NewGrantStore(conn)

	ok, err := gs.IsGranted(context.Background(), subj, 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantStore_InactiveGrantDenies(t *testing.T) {
	conn := openTestDB(t)
	seedZone(t, conn, 3, "Informática")
	subj := seedSubject(t, conn, "Ana", "Pérez", true, "")
	seedGrant(t, conn, subj, 3, false)
	gs := sqlitestore.NewGrantStore(conn)

	ok, err := gs.IsGranted(context.Background(), subj, 3)
	require.NoError(t, err)
	assert.False(t, ok, "an inactive row is the same as no row")
}

func TestGrantStore_NoRowDenies(t *testing.T) {
	conn := openTestDB(t)
	gs := sqlitestore.NewGrantStore(conn)

	ok, err := gs.IsGranted(context.Background(), 42, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ── GalleryStore ─────────────────────────────────────────────────────────────

func TestGalleryStore_ActiveSubjects(t *testing.T) {
	conn := openTestDB(t)
	seedSubject(t, conn, "Ana", "Pérez", true, "[[1, 0], [0.6, 0.8]]")
	seedSubject(t, conn, "Luis", "Gómez", false, "[[0, 1]]") // inactive
	seedSubject(t, conn, "Eva", "Ruiz", true, "")            // not enrolled
	gs := sqlitestore.NewGalleryStore(conn)

	subjects, err := gs.ActiveSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Ana Pérez", subjects[0].DisplayName)
	require.Len(t, subjects[0].Embeddings, 2)
	assert.Equal(t, []float64{1, 0}, subjects[0].Embeddings[0])
	assert.Equal(t, []float64{0.6, 0.8}, subjects[0].Embeddings[1])
}

func TestGalleryStore_SkipsCorruptEmbeddings(t *testing.T) {
	conn := openTestDB(t)
	seedSubject(t, conn, "Bad", "Blob", true, "{not json")
	seedSubject(t, conn, "Ana", "Pérez", true, "[[1, 0]]")
	gs := sqlitestore.NewGalleryStore(conn)

	subjects, err := gs.ActiveSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Ana Pérez", subjects[0].DisplayName)
}

func TestGalleryStore_StableOrder(t *testing.T) {
	conn := openTestDB(t)
	first := seedSubject(t, conn, "Ana", "Pérez", true, "[[1, 0]]")
	second := seedSubject(t, conn, "Luis", "Gómez", true, "[[0, 1]]")
	gs := sqlitestore.NewGalleryStore(conn)

	subjects, err := gs.ActiveSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, first, subjects[0].SubjectID)
	assert.Equal(t, second, subjects[1].SubjectID)
}

// ── AuditEventStore ──────────────────────────────────────────────────────────

func TestAuditEventStore_RecordEvent(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	seedZone(t, conn, 3, "Informática")
	subj := seedSubject(t, conn, "Ana", "Pérez", true, "")
	dev := seedDevice(t, conn, "192.168.0.20", 3, "active")
	as := sqlitestore.NewAuditEventStore(conn, w)

	zone := 3
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	err := as.RecordEvent(context.Background(), store.AuditEventRecord{
		SubjectID:    &subj,
		Result:       store.ResultApproved,
		AttemptCount: 1,
		OccurredAt:   now,
		DeviceID:     &dev,
		ZoneCode:     &zone,
		CaptureImage: []byte{0xff, 0xd8},
		Notes:        "access granted",
	})
	require.NoError(t, err)

	var (
		eventID   string
		subjectID int64
		eventType string
		result    string
		occurred  int64
	)
	err = conn.QueryRow(`
SELECT event_id, subject_id, event_type, access_result, occurred_at_ms
FROM audit_events;`).Scan(&eventID, &subjectID, &eventType, &result, &occurred)
	require.NoError(t, err)
	assert.NotEmpty(t, eventID, "event id is generated when absent")
	assert.Equal(t, subj, subjectID)
	assert.Equal(t, store.EventTypeEntry, eventType, "entry is the default event type")
	assert.Equal(t, store.ResultApproved, result)
	assert.Equal(t, now.UnixMilli(), occurred)
}

func TestAuditEventStore_NullSubjectAndDevice(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	as := sqlitestore.NewAuditEventStore(conn, w)

	err := as.RecordEvent(context.Background(), store.AuditEventRecord{
		Result: store.ResultDenied,
		Notes:  "no face detected",
	})
	require.NoError(t, err)

	var subjectNull, deviceNull bool
	err = conn.QueryRow(`
SELECT subject_id IS NULL, device_id IS NULL FROM audit_events;`).Scan(&subjectNull, &deviceNull)
	require.NoError(t, err)
	assert.True(t, subjectNull)
	assert.True(t, deviceNull)
}
