// Package sink implements the façade the control loop hands translated
// operations to: declare/update a timeline, emit an event, emit an
// interaction, and flush. The wire encoding of the ingest RPC itself is
// out of scope (spec's external sink contract) — the façade's job is
// ordinal assignment, attribute-merge-on-reopen, and interaction
// pending-buffering, leaving actual request/response exchange to an
// injected Transport.
package sink

import (
	"context"
	"errors"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
)

// ErrRejected is returned by a Transport (and surfaced through Flush or
// Apply) when the remote ingest endpoint rejects a batch outright; the
// control loop treats this as terminal.
var ErrRejected = errors.New("sink: batch rejected by ingest endpoint")

// TimelineRecord is a fully-resolved open_timeline operation, ready for
// wire encoding.
type TimelineRecord struct {
	ID    timelineid.ID
	Name  string
	Attrs map[string]any
}

// EventRecord is a fully-resolved emit_event operation: Ordinal has
// already been assigned by the façade.
type EventRecord struct {
	Timeline timelineid.ID
	Ordinal  uint64
	Name     string
	Attrs    map[string]any
}

// InteractionRecord is a fully-resolved emit_interaction operation: both
// endpoints' ordinals are known.
type InteractionRecord struct {
	SrcTimeline timelineid.ID
	SrcOrdinal  uint64
	DstTimeline timelineid.ID
	DstOrdinal  uint64
}

// Batch groups records destined for a single Transport.Send call. The
// façade is free to split a run's operations across any number of
// batches; a Transport must apply a batch atomically from the caller's
// point of view (either all of it lands, or Send returns an error).
type Batch struct {
	Timelines    []TimelineRecord
	Events       []EventRecord
	Interactions []InteractionRecord
}

// Empty reports whether the batch carries no records at all.
func (b Batch) Empty() bool {
	return len(b.Timelines) == 0 && len(b.Events) == 0 && len(b.Interactions) == 0
}

// Transport performs the actual request/response exchange with the
// ingest endpoint. Implementations are responsible for wire encoding,
// auth, retries, and TLS — none of which this package concerns itself
// with.
type Transport interface {
	Send(ctx context.Context, batch Batch) error
}

// Facade is the sink contract the control loop drives: declare/update a
// timeline, emit an event, emit an interaction edge, and block until
// prior operations are acknowledged.
type Facade interface {
	// OpenTimeline declares a timeline, or — if id was already opened —
	// merges attrs into the existing attribute set, later values
	// overwriting earlier ones for keys present in both calls.
	OpenTimeline(ctx context.Context, id timelineid.ID, name string, attrs map[string]any) error

	// EmitEvent records an event on timeline id and assigns it the next
	// ordinal in that timeline's strictly increasing per-timeline
	// sequence. It returns the assigned ordinal.
	EmitEvent(ctx context.Context, id timelineid.ID, name string, attrs map[string]any) (ordinal uint64, err error)

	// EmitInteraction records an edge from an already-emitted source
	// event to the next event emitted on dst. The destination ordinal
	// isn't known yet — the façade resolves it itself once that event
	// is emitted, buffering the interaction in the interim (at most one
	// pending interaction per destination timeline; a second call for
	// the same dst before its event arrives replaces the first).
	EmitInteraction(ctx context.Context, src timelineid.ID, srcOrdinal uint64, dst timelineid.ID) error

	// Flush blocks until the sink has acknowledged all operations
	// handed to it so far.
	Flush(ctx context.Context) error
}
