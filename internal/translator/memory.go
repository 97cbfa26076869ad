package translator

import (
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
)

// handleMemoryEvent implements spec.md §4.4's MEMORY_ALLOC/MEMORY_FREE
// behavior: emit on the current context's timeline with the heap
// counters the recorder itself tracked.
func handleMemoryEvent(state *interpreter.State, e recorder.MemoryEvent, base map[string]any) []sinkops.Op {
	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)

	name := "MEMORY_ALLOC"
	if e.Freed {
		name = "MEMORY_FREE"
	}

	attrs := cloneAttrs(base, map[string]any{
		string(attr.EventMemoryAddress):     e.Address,
		string(attr.EventMemorySize):        e.Size,
		string(attr.EventMemoryHeapCurrent):  e.HeapCurrent,
		string(attr.EventMemoryHeapHighMark): e.HeapHighMark,
	})
	for k, v := range currentContextAttrs(state, ctx) {
		attrs[k] = v
	}

	ops, _ := emit(state, timelineID, name, attrs)
	return ops
}

// handleUnusedStack implements spec.md §4.4's stack high-water-mark
// event: it names the monitored task explicitly (it is not necessarily
// the currently executing context) but still lands on whichever
// timeline is currently executing, since the recorder emits it as a
// side effect of a stack-check call on the current context.
func handleUnusedStack(state *interpreter.State, e recorder.UnusedStack, base map[string]any) []sinkops.Op {
	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)

	attrs := cloneAttrs(base, currentContextAttrs(state, ctx))
	attrs[string(attr.EventStackLowMark)] = e.LowMark
	attrs[string(attr.EventTaskName)] = state.Symbols.Name(e.TaskHandle)

	ops, _ := emit(state, timelineID, "UNUSED_STACK", attrs)
	return ops
}

// handleStatemachineStateChange implements spec.md §4.4's state-machine
// transition event.
func handleStatemachineStateChange(state *interpreter.State, e recorder.StatemachineStateChange, base map[string]any) []sinkops.Op {
	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)

	attrs := cloneAttrs(base, map[string]any{
		string(attr.EventStateMachine): state.Symbols.Name(e.StateMachineHandle),
		string(attr.EventState):        state.Symbols.Name(e.StateHandle),
	})
	for k, v := range currentContextAttrs(state, ctx) {
		attrs[k] = v
	}

	ops, _ := emit(state, timelineID, "STATEMACHINE_STATE_CHANGE", attrs)
	return ops
}
