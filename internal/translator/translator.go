// Package translator implements spec.md §4.4's pure event-translation
// function: one recorder.Event in, zero or more sinkops.Op out, all
// state mutation confined to the interpreter.State it is handed.
package translator

import (
	"fmt"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/symboltable"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/ticktime"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
	"github.com/sirupsen/logrus"
)

// Translate folds one decoded event into state and returns the sink
// operations it produces, per spec.md §4.4's behavior-by-event-kind
// table. log receives every warning/debug point spec.md §4.4 and §7
// call for; it is never nil in production (internal/logging always
// supplies one) but a discarded logrus.Entry works fine in tests.
func Translate(state *interpreter.State, log *logrus.Entry, ev recorder.Event) []sinkops.Op {
	common := ev.Header()

	if _, ok := ev.(recorder.TraceStart); !ok && !state.SawTraceStart() {
		log.WithField("event_id", common.ID).Warn("event observed before TRACE_START, attributing to startup timeline")
	}

	extCount, dropped := state.ObserveEventCount(common.EventCount)
	extTicks, monotonic := state.ObserveTimerTicks(common.TimerTicks)
	if !monotonic {
		log.WithField("event_id", common.ID).Warn("timer ticks went backwards")
	}
	if dropped > 0 {
		log.WithField("dropped_preceding_events", dropped).Warn("detected dropped events")
	}

	base := commonAttrs(state, common, extCount, extTicks, dropped)

	switch e := ev.(type) {
	case recorder.TraceStart:
		return handleTraceStart(state, e, base)

	case recorder.ObjectName:
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassUnknown, e.Name, symboltable.Properties{}, "OBJECT_NAME", base, nil)
	case recorder.TaskCreate:
		priority := e.Priority
		extra := map[string]any{string(attr.EventTaskPriority): e.Priority}
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassTask, e.Name, symboltable.Properties{Priority: &priority}, "TASK_CREATE", base, extra)
	case recorder.QueueCreate:
		length := e.Length
		extra := map[string]any{string(attr.EventQueueLength): e.Length}
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassQueue, e.Name, symboltable.Properties{QueueLength: &length}, "QUEUE_CREATE", base, extra)
	case recorder.SemaphoreCreate:
		extra := map[string]any{string(attr.EventSemaphoreCount): e.Count, "counting": e.Counting}
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassSemaphore, e.Name, symboltable.Properties{}, "SEMAPHORE_CREATE", base, extra)
	case recorder.MutexCreate:
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassMutex, e.Name, symboltable.Properties{}, "MUTEX_CREATE", base, nil)
	case recorder.EventGroupCreate:
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassEventGroup, e.Name, symboltable.Properties{}, "EVENT_GROUP_CREATE", base, nil)
	case recorder.StreamBufferCreate:
		extra := map[string]any{string(attr.EventMessageBufferSize): e.Size}
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassStreamBuffer, e.Name, symboltable.Properties{}, "STREAM_BUFFER_CREATE", base, extra)
	case recorder.MessageBufferCreate:
		extra := map[string]any{string(attr.EventMessageBufferSize): e.Size}
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassMessageBuffer, e.Name, symboltable.Properties{}, "MESSAGE_BUFFER_CREATE", base, extra)
	case recorder.StatemachineCreate:
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassStateMachine, e.Name, symboltable.Properties{}, "STATEMACHINE_CREATE", base, nil)
	case recorder.StatemachineStateCreate:
		smName := state.Symbols.Name(e.StateMachineHandle)
		props := symboltable.Properties{StateMachine: smName}
		extra := map[string]any{string(attr.EventStateMachine): smName}
		return handleObjectBinding(state, log, e.Handle, symboltable.ClassState, e.Name, props, "STATEMACHINE_STATE_CREATE", base, extra)

	case recorder.TaskActivate:
		return handleTaskActivate(state, e, base)
	case recorder.TaskSwitchIsrBegin:
		return handleIsrBegin(state, e, base)
	case recorder.TaskSwitchIsrResume:
		return handleIsrResume(state, log, e, base)

	case recorder.QueueEvent:
		return handleQueueEvent(state, e, base)
	case recorder.TaskNotify:
		return handleTaskNotify(state, e, base)

	case recorder.UserEvent:
		return handleUserEvent(state, log, e, base)

	case recorder.MemoryEvent:
		return handleMemoryEvent(state, e, base)
	case recorder.UnusedStack:
		return handleUnusedStack(state, e, base)
	case recorder.StatemachineStateChange:
		return handleStatemachineStateChange(state, e, base)

	case recorder.Raw:
		return handleRaw(state, log, e, base)
	default:
		log.WithField("go_type", fmt.Sprintf("%T", ev)).Debug("unrecognized recorder.Event implementation")
		return nil
	}
}

// commonAttrs builds the attributes always present on every emitted
// event (spec.md §4.5), plus the drop-detection attribute when a gap
// was just observed.
func commonAttrs(state *interpreter.State, c recorder.Common, extCount, extTicks, dropped uint64) map[string]any {
	m := map[string]any{
		string(attr.EventID):             c.ID,
		string(attr.EventTimerTicks):     c.TimerTicks,
		string(attr.EventTimestampTicks): extTicks,
		string(attr.EventCountRaw):       c.EventCount,
		string(attr.EventCount):          extCount,
	}
	if state.FrequencyHz > 0 {
		m[string(attr.EventTimestamp)] = ticktime.ToNanos(extTicks, state.FrequencyHz)
	}
	if dropped > 0 {
		m[string(attr.EventDroppedEvents)] = dropped
	}
	return m
}

// cloneAttrs returns a new map holding base's entries plus extra's,
// extra winning on key collision. Every handler needs its own map
// since base is shared across the whole Translate call.
func cloneAttrs(base map[string]any, extra map[string]any) map[string]any {
	m := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		m[k] = v
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// timelineNameFor names a timeline after its bound symbol, falling
// back to the symbol table's synthetic "handle-N" for objects not yet
// named.
func timelineNameFor(state *interpreter.State, handle uint16) string {
	return state.Symbols.Name(handle)
}

// currentContextAttrs adds the root-level task/isr convenience
// attribute for whichever context is presently executing.
func currentContextAttrs(state *interpreter.State, ctx interpreter.Context) map[string]any {
	name := timelineNameFor(state, ctx.Handle)
	if ctx.Kind == interpreter.ContextISR {
		return map[string]any{string(attr.EventIsrName): name}
	}
	return map[string]any{string(attr.EventTaskName): name}
}

// emit assigns the next ordinal for id, builds its EmitEvent op, and -
// per spec.md §9's interaction pending-buffer note - checks whether a
// pending interaction source was recorded for id and, if so, puts the
// EmitInteraction op completing it ahead of the EmitEvent op, since the
// sink façade binds a pending interaction to the next event emitted on
// its destination. Every handler that emits an
// event must go through this so ordinal mirroring (interpreter.State's
// lastOrdinal map) and pending-interaction consumption stay correct.
func emit(state *interpreter.State, id timelineid.ID, name string, attrs map[string]any) (ops []sinkops.Op, ordinal uint64) {
	ordinal = state.NextOrdinal(id)
	if src, srcOrd, ok := state.TakePendingInteractionSource(id); ok {
		ops = append(ops, sinkops.EmitInteractionPending(src, srcOrd, id))
	}
	ops = append(ops, sinkops.EmitEvent(id, name, attrs))
	return ops, ordinal
}
