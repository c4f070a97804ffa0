package service

import (
	"context"
	"strings"
	"time"

	"github.com/facegate/server/internal/facegate/store"
)

// DeviceDirectory resolves requesting origins to registered devices.
type DeviceDirectory struct {
	store store.DeviceStore
}

func NewDeviceDirectory(st store.DeviceStore) *DeviceDirectory {
	return &DeviceDirectory{store: st}
}

// ActiveByOrigin returns the active device registered for the origin, or
// nil when the origin is unknown or the device is not active.
func (d *DeviceDirectory) ActiveByOrigin(ctx context.Context, origin string) (*store.DeviceRecord, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil, nil
	}
	rec, err := d.store.DeviceByOrigin(ctx, origin)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Status != store.DeviceActive {
		return nil, nil
	}
	return rec, nil
}

// NoteSeen updates the device's last_check timestamp.
func (d *DeviceDirectory) NoteSeen(ctx context.Context, deviceID int64) error {
	return d.store.MarkSeen(ctx, deviceID, time.Now().UTC())
}
