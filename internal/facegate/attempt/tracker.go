// Package attempt tracks consecutive denials per (origin, subject) pair and
// escalates to an alert after a configurable number of them.
package attempt

import (
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facegate/server/internal/facegate/types"
)

// DefaultThreshold is the number of consecutive denials that triggers an
// alert. DefaultIdleTTL is how long an untouched counter stays live.
const (
	DefaultThreshold = 3
	DefaultIdleTTL   = 24 * time.Hour

	shardCount = 16
)

// State of one (origin, subject) counter.
type State int

const (
	StateClear State = iota
	StateWarning
	StateAlertTriggered
)

func (s State) String() string {
	switch s {
	case StateClear:
		return "CLEAR"
	case StateWarning:
		return "WARNING"
	case StateAlertTriggered:
		return "ALERT_TRIGGERED"
	default:
		return "UNKNOWN"
	}
}

// Key identifies one counter. Keys are never subject-only: one origin's
// failures must not consume another origin's attempt budget.
type Key struct {
	Origin    string
	SubjectID int64
}

// Result is the counter state after a Record call.
type Result struct {
	State State
	Count int
}

type entry struct {
	count     int
	updatedAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// Tracker is the only shared mutable state in the decision core. Counters
// live in a fixed set of mutex-guarded shards so transitions for one key
// are linearized while unrelated keys proceed concurrently.
type Tracker struct {
	shards    [shardCount]shard
	threshold atomic.Int32
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithNow injects the clock, so tests control TTL expiry deterministically.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIdleTTL sets how long an untouched counter stays live. Zero or
// negative keeps the default.
func WithIdleTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

func NewTracker(threshold int, opts ...Option) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	t := &Tracker{
		ttl: DefaultIdleTTL,
		now: func() time.Time { return time.Now().UTC() },
	}
	t.threshold.Store(int32(threshold))
	for _, opt := range opts {
		opt(t)
	}
	for i := range t.shards {
		t.shards[i].entries = make(map[Key]*entry)
	}
	return t
}

func (t *Tracker) Threshold() int { return int(t.threshold.Load()) }

// SetThreshold swaps the escalation threshold at runtime (config reload).
func (t *Tracker) SetThreshold(n int) {
	if n > 0 {
		t.threshold.Store(int32(n))
	}
}

// Record applies one decision outcome to the key's counter and returns the
// resulting state.
//
//   - GRANTED resets the counter to CLEAR.
//   - DENIED increments it; when the new count reaches the threshold the
//     counter transitions to ALERT_TRIGGERED and resets to zero in the same
//     critical section. The alert is a pulse, not a latch: the next denial
//     starts a fresh count at 1.
//   - Unidentified outcomes never touch the counter.
//
// Safe for concurrent use; transitions for the same key are serialized.
func (t *Tracker) Record(key Key, outcome types.Outcome) Result {
	sh := t.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := t.now()

	switch outcome {
	case types.OutcomeGranted:
		delete(sh.entries, key)
		return Result{State: StateClear, Count: 0}

	case types.OutcomeDenied:
		e := sh.entries[key]
		if e == nil || now.Sub(e.updatedAt) > t.ttl {
			e = &entry{}
			sh.entries[key] = e
		}
		e.count++
		e.updatedAt = now
		if e.count >= t.Threshold() {
			e.count = 0
			return Result{State: StateAlertTriggered, Count: 0}
		}
		return Result{State: StateWarning, Count: e.count}

	default:
		// No identified subject: escalation is scoped to "identified but
		// unauthorized" events only.
		return t.currentLocked(sh, key, now)
	}
}

// Count returns the live consecutive-denial count for a key.
func (t *Tracker) Count(key Key) int {
	sh := t.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return t.currentLocked(sh, key, t.now()).Count
}

func (t *Tracker) currentLocked(sh *shard, key Key, now time.Time) Result {
	e := sh.entries[key]
	if e == nil || now.Sub(e.updatedAt) > t.ttl {
		return Result{State: StateClear, Count: 0}
	}
	return Result{State: StateWarning, Count: e.count}
}

// EvictStale removes counters idle past the TTL and returns how many were
// dropped. Each shard is swept under its own lock, so eviction can never
// interleave with a transition for the same key.
func (t *Tracker) EvictStale() int {
	now := t.now()
	evicted := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		for k, e := range sh.entries {
			if now.Sub(e.updatedAt) > t.ttl {
				delete(sh.entries, k)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

func (t *Tracker) shard(key Key) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.Origin))
	_, _ = h.Write([]byte(strconv.FormatInt(key.SubjectID, 10)))
	return &t.shards[h.Sum32()%shardCount]
}
