package translator

import (
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
)

const (
	ipcFamilyQueue  = "queue"
	ipcFamilyNotify = "notify"
)

// handleQueueEvent implements spec.md §4.4's QUEUE_SEND/QUEUE_RECEIVE
// (and _FROM_ISR/_PEEK variant) behavior: emit on the current
// timeline with the queue's symbol, and in ipc mode pair a SEND with
// the next matching RECEIVE on the same handle.
func handleQueueEvent(state *interpreter.State, e recorder.QueueEvent, base map[string]any) []sinkops.Op {
	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)

	attrs := cloneAttrs(base, map[string]any{
		string(attr.EventQueueName): state.Symbols.Name(e.Handle),
	})
	for k, v := range currentContextAttrs(state, ctx) {
		attrs[k] = v
	}

	ops, ordinal := emit(state, timelineID, e.Name, attrs)
	return append(pairIPC(state, ipcFamilyQueue, e.Handle, e.Direction == recorder.QueueDirectionSend, timelineID, ordinal), ops...)
}

// handleTaskNotify implements spec.md §4.4's TASK_NOTIFY/
// TASK_NOTIFY_RECEIVE analogous IPC pairing on task handle.
func handleTaskNotify(state *interpreter.State, e recorder.TaskNotify, base map[string]any) []sinkops.Op {
	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)

	name := "TASK_NOTIFY"
	if e.Direction == recorder.TaskNotifyDirectionReceive {
		name = "TASK_NOTIFY_RECEIVE"
	}

	attrs := cloneAttrs(base, currentContextAttrs(state, ctx))
	ops, ordinal := emit(state, timelineID, name, attrs)
	return append(pairIPC(state, ipcFamilyNotify, e.Handle, e.Direction == recorder.TaskNotifyDirectionSend, timelineID, ordinal), ops...)
}

// pairIPC records handle's send-side endpoint, or - on the receive
// side - consumes a previously recorded send and returns the interaction
// completing the pair, which the handlers place ahead of the receive
// event's own ops so the sink façade binds it to that event. Per spec.md §4.4, "at most one outstanding pair
// per (queue, direction)" is tracked: a second SEND before a matching
// RECEIVE silently replaces the first via State.RecordIPCSend.
func pairIPC(state *interpreter.State, family string, handle uint16, isSend bool, timelineID timelineid.ID, ordinal uint64) []sinkops.Op {
	if state.Config.InteractionMode != config.InteractionModeIPC || state.Config.DisableTaskInteractions {
		return nil
	}
	if isSend {
		state.RecordIPCSend(family, handle, timelineID, ordinal)
		return nil
	}
	srcTimeline, srcOrdinal, ok := state.TakeIPCSend(family, handle)
	if !ok {
		return nil
	}
	return []sinkops.Op{sinkops.EmitInteractionPending(srcTimeline, srcOrdinal, timelineID)}
}
