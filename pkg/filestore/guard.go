package filestore

import (
	"errors"
	"sync"

	"github.com/rolevault/rolevault/pkg/observability"
)

// Guard decides when a store instance must reload its in-memory state from
// disk because a sibling process wrote the shared file.
//
// The file's last modification timestamp is the versioning token: a cheap
// stat replaces a full re-parse when nothing changed. The guard catches up
// at most once: after the first successful reload it stops checking for the
// rest of the instance's lifetime, bounding per-call overhead. A process
// that sat idle still sees sibling writes before its next logical operation.
//
// A disabled guard never reloads; the instance trusts the state loaded at
// construction for its whole lifetime.
type Guard struct {
	mu       sync.Mutex
	enabled  bool
	lastSeen *int64
	metrics  *observability.Metrics
	name     string
}

// NewGuard creates a concurrency guard. When enabled is false every
// MaybeReload call is a no-op.
func NewGuard(enabled bool) *Guard {
	return &Guard{enabled: enabled}
}

// WithMetrics attaches a metrics collector, labeling reload activity with
// the given store name. Returns the guard for chaining at construction.
func (g *Guard) WithMetrics(m *observability.Metrics, store string) *Guard {
	g.metrics = m
	g.name = store
	return g
}

// Enabled reports whether the guard still performs reload checks
func (g *Guard) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// MaybeReload compares the file's current modification timestamp against
// the last one this guard observed and calls reload when they differ.
//
// Failure handling follows the storage contract: a transient probe failure
// (file vanished mid-stat, for example) fails open and keeps the in-memory
// state; a probe misconfiguration (ErrInvalidTimestampProbe) propagates.
func (g *Guard) MaybeReload(modifiedAt func() (int64, error), reload func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.enabled {
		return nil
	}
	g.metrics.RecordReloadCheck(g.name)

	ts, err := modifiedAt()
	if err != nil {
		if errors.Is(err, ErrInvalidTimestampProbe) {
			return err
		}
		// Stale in-memory data beats crashing a read.
		return nil
	}

	if g.lastSeen != nil && *g.lastSeen == ts {
		return nil
	}

	if err := reload(); err != nil {
		return err
	}

	g.lastSeen = &ts
	g.enabled = false
	g.metrics.RecordReload(g.name)
	return nil
}

// Sync records the timestamp of a write this instance just performed, so
// the guard does not mistake the instance's own write for a sibling's.
func (g *Guard) Sync(ts int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSeen = &ts
}

// Invalidate re-arms the guard: the next MaybeReload call re-parses the
// file unconditionally. Wired to Watcher callbacks for push-based setups.
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = true
	g.lastSeen = nil
}
