// Package sinkops defines the operation envelope the translator emits
// and the sink façade consumes: declare/update a timeline, emit an
// event, or emit an interaction edge.
package sinkops

import "github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"

// Kind discriminates the Op variants.
type Kind int

const (
	KindOpenTimeline Kind = iota
	KindEmitEvent
	KindEmitInteraction
)

// Op is one operation produced by a single Translate call. A Translate
// call may produce zero, one, or several Ops (for example a
// TASK_ACTIVATE in fully-linearized mode emits one EmitEvent plus one
// EmitInteraction).
type Op struct {
	Kind Kind

	// OpenTimeline fields.
	Timeline       timelineid.ID
	TimelineName   string
	TimelineAttrs  map[string]any

	// EmitEvent fields. Ordinal is assigned by the sink façade, not the
	// translator, so it is left zero here.
	EventName  string
	EventAttrs map[string]any

	// EmitInteraction fields.
	SrcTimeline timelineid.ID
	SrcOrdinal  uint64
	DstTimeline timelineid.ID
	DstOrdinal  uint64
}

// OpenTimeline builds a declare/update-timeline operation.
func OpenTimeline(id timelineid.ID, name string, attrs map[string]any) Op {
	return Op{Kind: KindOpenTimeline, Timeline: id, TimelineName: name, TimelineAttrs: attrs}
}

// EmitEvent builds an emit-event operation targeting Timeline id.
func EmitEvent(id timelineid.ID, name string, attrs map[string]any) Op {
	return Op{Kind: KindEmitEvent, Timeline: id, EventName: name, EventAttrs: attrs}
}

// EmitInteractionPending builds an emit-interaction operation whose
// destination ordinal is not yet known; the sink façade resolves
// DstOrdinal once it assigns the destination event's ordinal.
func EmitInteractionPending(src timelineid.ID, srcOrdinal uint64, dst timelineid.ID) Op {
	return Op{Kind: KindEmitInteraction, SrcTimeline: src, SrcOrdinal: srcOrdinal, DstTimeline: dst}
}
