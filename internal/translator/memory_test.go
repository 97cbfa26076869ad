package translator

import (
	"testing"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/stretchr/testify/require"
)

func TestMemoryAllocAndFree(t *testing.T) {
	state := newTestState(t, config.PluginConfig{}, recorder.Header{})
	log := discardLog()

	opsAlloc := Translate(state, log, recorder.MemoryEvent{
		Common: recorder.Common{ID: 1}, Freed: false, Address: 0x2000, Size: 64, HeapCurrent: 128, HeapHighMark: 256,
	})
	alloc := findEmit(t, opsAlloc, "MEMORY_ALLOC")
	require.Equal(t, uint32(64), alloc.EventAttrs[string(attr.EventMemorySize)])
	require.Equal(t, uint32(128), alloc.EventAttrs[string(attr.EventMemoryHeapCurrent)])

	opsFree := Translate(state, log, recorder.MemoryEvent{
		Common: recorder.Common{ID: 2}, Freed: true, Address: 0x2000, Size: 64, HeapCurrent: 64, HeapHighMark: 256,
	})
	findEmit(t, opsFree, "MEMORY_FREE")
}

func TestUnusedStackNamesMonitoredTask(t *testing.T) {
	state := newTestState(t, config.PluginConfig{}, recorder.Header{})
	log := discardLog()

	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 1}, Handle: 3, Name: "Worker", Priority: 1})
	ops := Translate(state, log, recorder.UnusedStack{Common: recorder.Common{ID: 2}, TaskHandle: 3, LowMark: 48})
	e := findEmit(t, ops, "UNUSED_STACK")
	require.Equal(t, "Worker", e.EventAttrs[string(attr.EventTaskName)])
	require.Equal(t, uint32(48), e.EventAttrs[string(attr.EventStackLowMark)])
}

func TestStatemachineStateChange(t *testing.T) {
	state := newTestState(t, config.PluginConfig{}, recorder.Header{})
	log := discardLog()

	Translate(state, log, recorder.StatemachineCreate{Common: recorder.Common{ID: 1}, Handle: 10, Name: "LinkSM"})
	Translate(state, log, recorder.StatemachineStateCreate{Common: recorder.Common{ID: 2}, Handle: 11, StateMachineHandle: 10, Name: "Connected"})

	ops := Translate(state, log, recorder.StatemachineStateChange{Common: recorder.Common{ID: 3}, StateMachineHandle: 10, StateHandle: 11})
	e := findEmit(t, ops, "STATEMACHINE_STATE_CHANGE")
	require.Equal(t, "LinkSM", e.EventAttrs[string(attr.EventStateMachine)])
	require.Equal(t, "Connected", e.EventAttrs[string(attr.EventState)])
}
