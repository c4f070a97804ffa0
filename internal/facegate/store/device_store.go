package store

import (
	"context"
	"time"
)

// Device operational statuses. Only active devices may request validations.
const (
	DeviceActive      = "active"
	DeviceInactive    = "inactive"
	DeviceMaintenance = "maintenance"
)

type DeviceRecord struct {
	DeviceID  int64
	Name      string
	Origin    string // network origin (IP address) the device calls in from
	ZoneCode  int
	ZoneName  string
	Status    string
	LastCheck *time.Time
}

type DeviceStore interface {
	// DeviceByOrigin resolves a network origin to its registered device,
	// or nil when no device is registered for that origin.
	DeviceByOrigin(ctx context.Context, origin string) (*DeviceRecord, error)

	// MarkSeen updates the device's last_check timestamp.
	MarkSeen(ctx context.Context, deviceID int64, t time.Time) error
}
