package sink

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/translator"
)

// TestEmitInteractionSrcOrdinalMatchesFacadesOwnEmitEvent drives the
// real translator.Translate -> sink.Apply -> Facade pipeline (a queue
// send/receive IPC pair) and asserts that the SrcOrdinal the facade
// records on the resolved interaction is the literal ordinal its own
// EmitEvent returned for the send event - catching any future drift
// between interpreter.State's ordinal bookkeeping and a Facade's own,
// rather than only comparing the two sides' timelines.
func TestEmitInteractionSrcOrdinalMatchesFacadesOwnEmitEvent(t *testing.T) {
	cfg := config.PluginConfig{InteractionMode: config.InteractionModeIPC, RunID: uuid.MustParse("11111111-1111-1111-1111-111111111111")}
	state := interpreter.NewState(cfg, recorder.Header{}, 0)
	log := logrus.NewEntry(loggerDiscardingOutput())
	mem := NewMemory()
	ctx := context.Background()

	mustApply := func(ev recorder.Event) {
		require.NoError(t, Apply(ctx, mem, translator.Translate(state, log, ev)))
	}

	mustApply(recorder.TaskCreate{Common: recorder.Common{ID: 1}, Handle: 1, Name: "Sensor", Priority: 1})
	mustApply(recorder.TaskCreate{Common: recorder.Common{ID: 2}, Handle: 2, Name: "Actuator", Priority: 1})
	mustApply(recorder.QueueCreate{Common: recorder.Common{ID: 3}, Handle: 9, Name: "adc_queue", Length: 4})

	mustApply(recorder.TaskActivate{Common: recorder.Common{ID: 4}, Handle: 1, Priority: 1})
	mustApply(recorder.QueueEvent{Common: recorder.Common{ID: 5}, Name: "QUEUE_SEND", Handle: 9, Direction: recorder.QueueDirectionSend})

	mustApply(recorder.TaskActivate{Common: recorder.Common{ID: 6}, Handle: 2, Priority: 1})
	mustApply(recorder.QueueEvent{Common: recorder.Common{ID: 7}, Name: "QUEUE_RECEIVE", Handle: 9, Direction: recorder.QueueDirectionReceive})

	entries := mem.Entries()

	var sendOrdinal, interactionSrcOrdinal uint64
	var foundSend, foundInteraction bool
	for _, e := range entries {
		if e.Kind == EntryEmitEvent && e.EventName == "QUEUE_SEND" {
			sendOrdinal = e.EventOrdinal
			foundSend = true
		}
		if e.Kind == EntryEmitInteraction {
			interactionSrcOrdinal = e.SrcOrdinal
			foundInteraction = true
		}
	}
	require.True(t, foundSend)
	require.True(t, foundInteraction)

	require.Equal(t, uint64(2), sendOrdinal, "the send event follows Sensor's TASK_ACTIVATE on the same timeline, so the facade's own EmitEvent must return ordinal 2 per spec.md invariant 1")
	require.Equal(t, sendOrdinal, interactionSrcOrdinal, "the interaction's SrcOrdinal must equal the literal ordinal the facade itself assigned the source event, not the translator's internal value minus one")
}

func loggerDiscardingOutput() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
