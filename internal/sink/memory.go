package sink

import (
	"context"
	"sync"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
)

// EntryKind discriminates Memory's recorded entries, mirroring
// sinkops.Kind one-for-one.
type EntryKind int

const (
	EntryOpenTimeline EntryKind = iota
	EntryEmitEvent
	EntryEmitInteraction
)

// Entry is one fully-resolved call Memory observed, in call order.
type Entry struct {
	Kind EntryKind

	Timeline      timelineid.ID
	TimelineName  string
	TimelineAttrs map[string]any

	EventName    string
	EventAttrs   map[string]any
	EventOrdinal uint64

	SrcTimeline timelineid.ID
	SrcOrdinal  uint64
	DstTimeline timelineid.ID
	DstOrdinal  uint64
}

// Memory is a Facade test double that records every call in the exact
// order it was made, resolving ordinals and pending interactions the
// same way Buffered does, so tests can assert on the literal resulting
// sequence (spec invariant 7, replay determinism) without standing up a
// Transport.
type Memory struct {
	mu          sync.Mutex
	entries     []Entry
	lastOrdinal map[timelineid.ID]uint64
	pending     map[timelineid.ID]pendingInteraction
	flushes     int
}

var _ Facade = (*Memory)(nil)

// NewMemory constructs an empty Memory façade.
func NewMemory() *Memory {
	return &Memory{
		lastOrdinal: make(map[timelineid.ID]uint64),
		pending:     make(map[timelineid.ID]pendingInteraction),
	}
}

func (m *Memory) OpenTimeline(_ context.Context, id timelineid.ID, name string, attrs map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Kind: EntryOpenTimeline, Timeline: id, TimelineName: name, TimelineAttrs: attrs})
	return nil
}

func (m *Memory) EmitEvent(_ context.Context, id timelineid.ID, name string, attrs map[string]any) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOrdinal[id]++
	ordinal := m.lastOrdinal[id]
	m.entries = append(m.entries, Entry{Kind: EntryEmitEvent, Timeline: id, EventName: name, EventAttrs: attrs, EventOrdinal: ordinal})

	if p, ok := m.pending[id]; ok {
		delete(m.pending, id)
		m.entries = append(m.entries, Entry{
			Kind: EntryEmitInteraction, SrcTimeline: p.srcTimeline, SrcOrdinal: p.srcOrdinal,
			DstTimeline: id, DstOrdinal: ordinal,
		})
	}
	return ordinal, nil
}

func (m *Memory) EmitInteraction(_ context.Context, src timelineid.ID, srcOrdinal uint64, dst timelineid.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[dst] = pendingInteraction{srcTimeline: src, srcOrdinal: srcOrdinal}
	return nil
}

func (m *Memory) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

// Entries returns a copy of every entry recorded so far, in call order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Flushes reports how many times Flush was called.
func (m *Memory) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}
