// Package match compares a probe embedding against the enrolled gallery.
package match

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/facegate/server/internal/facegate/store"
)

// DefaultThreshold is the Euclidean distance below which two embeddings
// are considered the same face (buffalo_l embeddings, unit-normalized).
const DefaultThreshold = 0.68

// Match is a successful gallery hit.
type Match struct {
	SubjectID   int64
	DisplayName string
	Distance    float64
}

// Matcher holds the distance threshold. The threshold is read atomically
// so it can be swapped at runtime by the config reloader.
type Matcher struct {
	threshold atomic.Uint64 // float64 bits
}

func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	m := &Matcher{}
	m.threshold.Store(math.Float64bits(threshold))
	return m
}

func (m *Matcher) Threshold() float64 {
	return math.Float64frombits(m.threshold.Load())
}

func (m *Matcher) SetThreshold(t float64) {
	if t <= 0 {
		return
	}
	m.threshold.Store(math.Float64bits(t))
}

// Match walks the gallery in order and returns the first subject with a
// reference vector strictly below the threshold. This is a
// first-acceptable-match policy, not a global-minimum search: iteration
// order decides near-ties. A distance exactly equal to the threshold does
// not match. Pure function; "no match" is a normal outcome.
func (m *Matcher) Match(probe []float64, gallery []store.GallerySubject) (Match, bool) {
	threshold := m.Threshold()

	for _, subj := range gallery {
		for _, ref := range subj.Embeddings {
			if len(ref) != len(probe) {
				continue
			}
			ref = Normalize(ref)
			if ref == nil {
				continue
			}
			dist := floats.Distance(probe, ref, 2)
			if dist < threshold {
				return Match{
					SubjectID:   subj.SubjectID,
					DisplayName: subj.DisplayName,
					Distance:    dist,
				}, true
			}
		}
	}
	return Match{}, false
}

// Normalize returns a unit-length copy of v, or nil for a zero or empty
// vector. The input is never modified.
func Normalize(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	norm := floats.Norm(v, 2)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(1/norm, out)
	return out
}
