package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
)

func TestApplyDrivesFacadeInOpOrder(t *testing.T) {
	m := NewMemory()
	src := mustID("22222222-2222-2222-2222-2222222222aa")
	dst := mustID("22222222-2222-2222-2222-2222222222bb")

	ops := []sinkops.Op{
		sinkops.OpenTimeline(src, "Sensor", map[string]any{"role": "producer"}),
		sinkops.EmitEvent(src, "QUEUE_SEND", map[string]any{"queue": "adc"}),
	}
	require.NoError(t, Apply(context.Background(), m, ops))

	entries := m.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, EntryOpenTimeline, entries[0].Kind)
	require.Equal(t, EntryEmitEvent, entries[1].Kind)
	require.Equal(t, "QUEUE_SEND", entries[1].EventName)

	pendingOps := []sinkops.Op{
		sinkops.EmitInteractionPending(src, entries[1].EventOrdinal, dst),
		sinkops.EmitEvent(dst, "QUEUE_RECEIVE", nil),
	}
	require.NoError(t, Apply(context.Background(), m, pendingOps))

	entries = m.Entries()
	require.Len(t, entries, 4)
	require.Equal(t, EntryEmitEvent, entries[2].Kind)
	require.Equal(t, EntryEmitInteraction, entries[3].Kind)
	require.True(t, entries[3].SrcTimeline.Equal(src))
	require.True(t, entries[3].DstTimeline.Equal(dst))
}
