package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/facegate/server/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production. The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database. The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed automatically
// when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

func seedZone(t *testing.T, conn *sql.DB, code int, name string) {
	t.Helper()
	if _, err := conn.Exec(`
INSERT INTO zones(zone_code, name, created_at_ms, updated_at_ms)
VALUES (?, ?, 0, 0);`, code, name); err != nil {
		t.Fatalf("seedZone: %v", err)
	}
}

func seedDevice(t *testing.T, conn *sql.DB, origin string, zoneCode int, status string) int64 {
	t.Helper()
	res, err := conn.Exec(`
INSERT INTO devices(name, origin, zone_code, status, registered_at_ms, updated_at_ms)
VALUES ('Test Camera', ?, ?, ?, 0, 0);`, origin, zoneCode, status)
	if err != nil {
		t.Fatalf("seedDevice: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("seedDevice id: %v", err)
	}
	return id
}

func seedSubject(t *testing.T, conn *sql.DB, first, last string, active bool, embeddings string) int64 {
	t.Helper()
	activeInt := 0
	if active {
		activeInt = 1
	}
	var emb any
	if embeddings != "" {
		emb = embeddings
	}
	res, err := conn.Exec(`
INSERT INTO subjects(first_name, last_name, active, embeddings, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, 0, 0);`, first, last, activeInt, emb)
	if err != nil {
		t.Fatalf("seedSubject: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("seedSubject id: %v", err)
	}
	return id
}

func seedGrant(t *testing.T, conn *sql.DB, subjectID int64, zoneCode int, active bool) {
	t.Helper()
	activeInt := 0
	if active {
		activeInt = 1
	}
	if _, err := conn.Exec(`
INSERT INTO zone_grants(subject_id, zone_code, active, granted_at_ms, updated_at_ms)
VALUES (?, ?, ?, 0, 0);`, subjectID, zoneCode, activeInt); err != nil {
		t.Fatalf("seedGrant: %v", err)
	}
}
