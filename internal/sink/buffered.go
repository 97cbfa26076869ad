package sink

import (
	"context"
	"sync"
	"time"

	lru "github.com/elastic/go-freelru"
	"github.com/zeebo/xxh3"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
)

// pendingInteractionLifetime bounds how long an interaction can sit in
// Buffered's pending buffer waiting for its destination event. A
// destination that never arrives (a malformed trace, a dropped region)
// must not leak memory forever.
const pendingInteractionLifetime = 5 * time.Minute

const pendingInteractionCacheSize = 4096

func hashTimelineID(id timelineid.ID) uint32 {
	b := id.Bytes()
	return uint32(xxh3.Hash(b[:]))
}

type pendingInteraction struct {
	srcTimeline timelineid.ID
	srcOrdinal  uint64
}

// Buffered is the in-repository Facade implementation: it tracks each
// timeline's last-assigned ordinal, merges attribute sets on a repeated
// open_timeline for the same id (later values win), and resolves
// interactions whose destination ordinal wasn't yet known when
// EmitInteraction was called — buffering at most one such interaction
// per destination timeline. Resolved records are handed to a Transport
// as a Batch on Flush, or once the batch reaches flushThreshold records.
type Buffered struct {
	transport      Transport
	flushThreshold int

	mu          sync.Mutex
	lastOrdinal map[timelineid.ID]uint64
	timelines   map[timelineid.ID]*TimelineRecord
	pending     *lru.LRU[timelineid.ID, pendingInteraction]
	batch       Batch
}

// NewBuffered constructs a Buffered façade over transport. flushThreshold
// is the number of accumulated records at which Apply eagerly sends a
// batch instead of waiting for Flush; zero means "only on Flush."
func NewBuffered(transport Transport, flushThreshold int) *Buffered {
	pending, err := lru.New[timelineid.ID, pendingInteraction](pendingInteractionCacheSize, hashTimelineID)
	if err != nil {
		// pendingInteractionCacheSize is a compile-time constant known
		// to be valid; New only fails on a zero capacity.
		panic(err)
	}
	pending.SetLifetime(pendingInteractionLifetime)
	return &Buffered{
		transport:      transport,
		flushThreshold: flushThreshold,
		lastOrdinal:    make(map[timelineid.ID]uint64),
		timelines:      make(map[timelineid.ID]*TimelineRecord),
		pending:        pending,
	}
}

var _ Facade = (*Buffered)(nil)

func (b *Buffered) OpenTimeline(ctx context.Context, id timelineid.ID, name string, attrs map[string]any) error {
	b.mu.Lock()
	if existing, ok := b.timelines[id]; ok {
		if name != "" {
			existing.Name = name
		}
		for k, v := range attrs {
			existing.Attrs[k] = v
		}
	} else {
		merged := make(map[string]any, len(attrs))
		for k, v := range attrs {
			merged[k] = v
		}
		rec := &TimelineRecord{ID: id, Name: name, Attrs: merged}
		b.timelines[id] = rec
		b.batch.Timelines = append(b.batch.Timelines, *rec)
	}
	full := b.overThreshold()
	b.mu.Unlock()
	if full {
		return b.Flush(ctx)
	}
	return nil
}

func (b *Buffered) EmitEvent(ctx context.Context, id timelineid.ID, name string, attrs map[string]any) (uint64, error) {
	b.mu.Lock()
	b.lastOrdinal[id]++
	ordinal := b.lastOrdinal[id]
	b.batch.Events = append(b.batch.Events, EventRecord{Timeline: id, Ordinal: ordinal, Name: name, Attrs: attrs})

	if p, ok := b.pending.Get(id); ok {
		b.pending.Remove(id)
		b.batch.Interactions = append(b.batch.Interactions, InteractionRecord{
			SrcTimeline: p.srcTimeline,
			SrcOrdinal:  p.srcOrdinal,
			DstTimeline: id,
			DstOrdinal:  ordinal,
		})
	}
	full := b.overThreshold()
	b.mu.Unlock()
	if full {
		return ordinal, b.Flush(ctx)
	}
	return ordinal, nil
}

// EmitInteraction buffers the interaction pending dst's next emitted
// event, replacing whatever interaction was already pending for dst (a
// destination timeline only ever awaits its most recent source).
func (b *Buffered) EmitInteraction(_ context.Context, src timelineid.ID, srcOrdinal uint64, dst timelineid.ID) error {
	b.mu.Lock()
	b.pending.Add(dst, pendingInteraction{srcTimeline: src, srcOrdinal: srcOrdinal})
	b.mu.Unlock()
	return nil
}

func (b *Buffered) overThreshold() bool {
	if b.flushThreshold <= 0 {
		return false
	}
	return len(b.batch.Timelines)+len(b.batch.Events)+len(b.batch.Interactions) >= b.flushThreshold
}

// Flush sends whatever is currently buffered and blocks until the
// transport acknowledges it.
func (b *Buffered) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.batch.Empty() {
		b.mu.Unlock()
		return nil
	}
	toSend := b.batch
	b.batch = Batch{}
	b.mu.Unlock()

	if err := b.transport.Send(ctx, toSend); err != nil {
		b.mu.Lock()
		// Give the unsent records back to the front of the next batch
		// so a caller that retries after a transient error doesn't
		// lose them.
		b.batch.Timelines = append(toSend.Timelines, b.batch.Timelines...)
		b.batch.Events = append(toSend.Events, b.batch.Events...)
		b.batch.Interactions = append(toSend.Interactions, b.batch.Interactions...)
		b.mu.Unlock()
		return err
	}
	return nil
}
