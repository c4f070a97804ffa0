// Package face is the boundary to the external face-detection capability.
// The embedding model runs out of process; this package only ships frames
// to it and parses what comes back.
package face

import (
	"context"

	"github.com/facegate/server/internal/facegate/types"
)

// Detection is one face found in a frame: its embedding and where it was.
type Detection struct {
	Embedding   []float64         `json:"embedding"`
	BoundingBox types.BoundingBox `json:"box"`
}

// Detector turns raw frame bytes into zero, one, or many detections.
// Zero detections is a normal result, not an error.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]Detection, error)
}
