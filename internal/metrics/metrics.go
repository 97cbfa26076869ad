// Package metrics holds the control loop's run counters: atomic
// fields bumped from the single consumer goroutine and read by a
// periodic snapshot logger, grounded on the teacher's atomic-counter
// pattern in libpf/freelru/lru.go.
package metrics

import "sync/atomic"

// Counters tracks one import/collection run's throughput. All fields
// are safe for concurrent use; in practice only the control loop's
// consumer goroutine ever increments them, and a periodic logger reads
// Snapshot from a different goroutine.
type Counters struct {
	EventsTranslated    atomic.Uint64
	EventsDropped       atomic.Uint64
	InteractionsEmitted atomic.Uint64
	TimelinesDeclared   atomic.Uint64
	SinkFlushes         atomic.Uint64
}

// Snapshot is a point-in-time copy of Counters suitable for logging.
type Snapshot struct {
	EventsTranslated    uint64
	EventsDropped       uint64
	InteractionsEmitted uint64
	TimelinesDeclared   uint64
	SinkFlushes         uint64
}

// Snapshot reads every counter without resetting it; unlike the
// teacher's LRU statistics (which reset on read, since they describe
// the interval since the last read), these counters describe the
// whole run so far.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		EventsTranslated:    c.EventsTranslated.Load(),
		EventsDropped:       c.EventsDropped.Load(),
		InteractionsEmitted: c.InteractionsEmitted.Load(),
		TimelinesDeclared:   c.TimelinesDeclared.Load(),
		SinkFlushes:         c.SinkFlushes.Load(),
	}
}
