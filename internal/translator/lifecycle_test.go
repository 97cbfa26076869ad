package translator

import (
	"testing"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
	"github.com/stretchr/testify/require"
)

// Object-creation events land on the currently executing context's
// timeline, never a timeline of their own.
func TestObjectBindingEmitsOnCurrentContext(t *testing.T) {
	state := newTestState(t, config.PluginConfig{}, recorder.Header{})
	log := discardLog()

	ops := Translate(state, log, recorder.QueueCreate{Common: recorder.Common{ID: 1}, Handle: 5, Name: "adc_queue", Length: 8})
	e := findEmit(t, ops, "QUEUE_CREATE")
	startupID, _ := state.TimelineForContext(interpreter.Context{Kind: interpreter.ContextTask, Handle: 0})
	require.True(t, e.Timeline.Equal(startupID))
	require.Equal(t, "adc_queue", e.EventAttrs[string(attr.EventSymbol)])
	require.Equal(t, uint32(8), e.EventAttrs[string(attr.EventQueueLength)])
}

// A rebinding attempt is dropped with a warning, not applied.
func TestObjectRebindingDropped(t *testing.T) {
	state := newTestState(t, config.PluginConfig{}, recorder.Header{})
	log := discardLog()

	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 1}, Handle: 7, Name: "A", Priority: 1})
	ops := Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 2}, Handle: 7, Name: "B", Priority: 2})
	require.Empty(t, ops)
	entry, ok := state.Symbols.Lookup(7)
	require.True(t, ok)
	require.Equal(t, "A", entry.Name)
}

// S4 — Linearised interactions: after Task A emits e1 and Task B is
// activated producing e2, an interaction (A, e1) -> (B, e2) is emitted.
func TestLinearisedInteractionOnTaskSwitch(t *testing.T) {
	cfg := config.PluginConfig{InteractionMode: config.InteractionModeFullyLinearized}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 1}, Handle: 1, Name: "A", Priority: 1})
	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 2}, Handle: 2, Name: "B", Priority: 1})

	opsA := Translate(state, log, recorder.TaskActivate{Common: recorder.Common{ID: 3}, Handle: 1, Priority: 1})
	e1 := findEmit(t, opsA, "TASK_ACTIVATE")
	timelineA, _ := state.TimelineForContext(interpreter.Context{Kind: interpreter.ContextTask, Handle: 1})
	require.True(t, e1.Timeline.Equal(timelineA))

	opsB := Translate(state, log, recorder.TaskActivate{Common: recorder.Common{ID: 4}, Handle: 2, Priority: 1})
	e2 := findEmit(t, opsB, "TASK_ACTIVATE")
	timelineB, _ := state.TimelineForContext(interpreter.Context{Kind: interpreter.ContextTask, Handle: 2})
	require.True(t, e2.Timeline.Equal(timelineB))

	var interaction sinkops.Op
	found := false
	for _, op := range opsB {
		if op.Kind == sinkops.KindEmitInteraction {
			interaction = op
			found = true
		}
	}
	require.True(t, found, "expected an EmitInteraction op in %+v", opsB)
	require.True(t, interaction.SrcTimeline.Equal(timelineA))
	require.Equal(t, uint64(1), interaction.SrcOrdinal)
	require.True(t, interaction.DstTimeline.Equal(timelineB))
}

// Implicit ISR exit on TASK_ACTIVATE pops the nested ISR frame, leaving
// the newly activated task alone on the active-context stack.
func TestTaskActivateImplicitlyClosesNestedISRs(t *testing.T) {
	cfg := config.PluginConfig{}
	state := newTestState(t, cfg, recorder.Header{FrequencyHz: 1_000_000, CPUUtilizationMeasurementWindowTicks: 1_000_000})
	log := discardLog()

	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 1}, Handle: 1, Name: "A", Priority: 1})
	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 2}, Handle: 2, Name: "B", Priority: 1})

	Translate(state, log, recorder.TaskActivate{Common: recorder.Common{ID: 3, TimerTicks: 0}, Handle: 1, Priority: 1})
	Translate(state, log, recorder.TaskSwitchIsrBegin{Common: recorder.Common{ID: 4, TimerTicks: 10}, Handle: 9, Priority: 5})
	require.Equal(t, 2, state.Stack.Depth())

	// Task B activates without the ISR ever explicitly resuming.
	Translate(state, log, recorder.TaskActivate{Common: recorder.Common{ID: 5, TimerTicks: 20}, Handle: 2, Priority: 1})
	require.Equal(t, 1, state.Stack.Depth())
	require.Equal(t, interpreter.Context{Kind: interpreter.ContextTask, Handle: 2}, state.Stack.Top())
}

// S5 — CPU utilisation: window=500ms @ 48MHz (24e6 ticks); task X
// accumulates 12e6 ticks running, so the window closes at
// cpu_utilization=0.5.
func TestCPUUtilizationWindowClosure(t *testing.T) {
	const freq = 48_000_000
	const windowTicks = 24_000_000
	cfg := config.PluginConfig{}
	state := newTestState(t, cfg, recorder.Header{FrequencyHz: freq, CPUUtilizationMeasurementWindowTicks: windowTicks})
	log := discardLog()

	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 1}, Handle: 1, Name: "X", Priority: 1})
	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 2}, Handle: 2, Name: "Y", Priority: 1})

	Translate(state, log, recorder.TaskActivate{Common: recorder.Common{ID: 3, TimerTicks: 0}, Handle: 1, Priority: 1})
	Translate(state, log, recorder.TaskActivate{Common: recorder.Common{ID: 4, TimerTicks: 12_000_000}, Handle: 2, Priority: 1})
	opsX := Translate(state, log, recorder.TaskActivate{Common: recorder.Common{ID: 5, TimerTicks: 25_000_000}, Handle: 1, Priority: 1})

	e := findEmit(t, opsX, "TASK_ACTIVATE")
	require.Equal(t, uint64(windowTicks), e.EventAttrs[string(attr.EventRuntimeWindowTicks)])
	require.Equal(t, uint64(12_000_000), e.EventAttrs[string(attr.EventRuntimeInWindowTicks)])
	require.InDelta(t, 0.5, e.EventAttrs[string(attr.EventCpuUtilization)].(float64), 1e-9)
}
