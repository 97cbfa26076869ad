package attr

import (
	"fmt"
	"strings"
)

// EventAttrKey is an attribute key scoped to a single emitted event.
type EventAttrKey string

const (
	EventName             EventAttrKey = "event.name"
	EventTimestamp        EventAttrKey = "event.timestamp"
	EventRemoteTimelineID EventAttrKey = "event.interaction.remote_timeline_id"
	EventRemoteNonce      EventAttrKey = "event.interaction.remote_nonce"
	EventInternalNonce    EventAttrKey = "event.internal.trace_recorder.nonce"
	EventNonce            EventAttrKey = "event.nonce"
	EventMutatorID        EventAttrKey = "event.mutator.id"
	EventInternalMutatorID EventAttrKey = "event.internal.trace_recorder.mutator.id"
	EventMutationID        EventAttrKey = "event.mutation.id"
	EventInternalMutationID EventAttrKey = "event.internal.trace_recorder.mutation.id"
	EventMutationSuccess    EventAttrKey = "event.mutation.success"

	EventID            EventAttrKey = "event.internal.trace_recorder.id"
	EventCount         EventAttrKey = "event.internal.trace_recorder.event_count"
	EventCountRaw      EventAttrKey = "event.internal.trace_recorder.event_count.raw"
	EventDroppedEvents EventAttrKey = "event.trace_recorder.dropped_preceding_events"
	EventParameterCount EventAttrKey = "event.internal.trace_recorder.parameter_count"

	EventCode EventAttrKey = "event.internal.trace_recorder.code"
	EventType EventAttrKey = "event.internal.trace_recorder.type"

	EventTimestampTicks EventAttrKey = "event.internal.trace_recorder.timestamp.ticks"
	EventTimerTicks     EventAttrKey = "event.internal.trace_recorder.timer.ticks"

	EventObjectHandle EventAttrKey = "event.internal.trace_recorder.object_handle"
	EventSymbol       EventAttrKey = "event.internal.trace_recorder.symbol"
	EventClass        EventAttrKey = "event.internal.trace_recorder.class"

	EventIsrName     EventAttrKey = "event.isr"
	EventIsrPriority EventAttrKey = "event.priority"

	EventTaskName     EventAttrKey = "event.task"
	EventTaskPriority EventAttrKey = "event.priority"

	EventMemoryAddress    EventAttrKey = "event.address"
	EventMemorySize       EventAttrKey = "event.size"
	EventMemoryHeapCurrent EventAttrKey = "event.internal.trace_recorder.heap.current"
	EventMemoryHeapHighMark EventAttrKey = "event.internal.trace_recorder.heap.high_mark"
	EventMemoryHeapMax      EventAttrKey = "event.internal.trace_recorder.heap.max"

	EventStackLowMark EventAttrKey = "event.low_mark"

	EventQueueName             EventAttrKey = "event.queue"
	EventQueueLength           EventAttrKey = "event.queue_length"
	EventQueueMessagesWaiting  EventAttrKey = "event.messages_waiting"

	EventMutexName EventAttrKey = "event.mutex"

	EventStateMachine EventAttrKey = "event.state_machine"
	EventState        EventAttrKey = "event.state"

	EventSemaphoreName  EventAttrKey = "event.semaphore"
	EventSemaphoreCount EventAttrKey = "event.count"

	EventEventGroupName EventAttrKey = "event.event_group"
	EventEventGroupBits EventAttrKey = "event.bits"

	EventMessageBufferName             EventAttrKey = "event.message_buffer"
	EventMessageBufferSize             EventAttrKey = "event.buffer_size"
	EventMessageBufferBytesInBuffer    EventAttrKey = "event.bytes_in_buffer"

	EventTicksToWait EventAttrKey = "event.internal.trace_recorder.ticks_to_wait"
	EventNanosToWait EventAttrKey = "event.internal.trace_recorder.ns_to_wait"

	EventUserChannel         EventAttrKey = "event.channel"
	EventUserFormattedString EventAttrKey = "event.formatted_string"

	EventTotalRuntimeTicks  EventAttrKey = "event.internal.trace_recorder.total_runtime.ticks"
	EventTotalRuntime       EventAttrKey = "event.total_runtime"
	EventRuntimeTicks       EventAttrKey = "event.internal.trace_recorder.runtime.ticks"
	EventRuntime            EventAttrKey = "event.runtime"
	EventRuntimeWindowTicks EventAttrKey = "event.internal.trace_recorder.runtime_window.ticks"
	EventRuntimeWindow      EventAttrKey = "event.runtime_window"
	EventRuntimeInWindowTicks EventAttrKey = "event.internal.trace_recorder.runtime_in_window.ticks"
	EventRuntimeInWindow      EventAttrKey = "event.runtime_in_window"
	EventCpuUtilization       EventAttrKey = "event.cpu_utilization"
)

// EventUserArg returns the event.argN key for positional user-event
// arguments 0..14, the range TraceRecorder's USER_EVENT payload supports.
func EventUserArg(n int) EventAttrKey {
	return EventAttrKey(fmt.Sprintf("event.arg%d", n))
}

// EventCustomUserArg builds a named (rather than positional) user-event
// argument key, used when a user-event-fmt-arg-attr-keys rule supplies
// attribute names for a channel's arguments.
func EventCustomUserArg(name string) EventAttrKey {
	return EventAttrKey("event." + name)
}

// CfgKey drops the "event." prefix, yielding the key form a Facade
// already scoped to an event expects.
func (k EventAttrKey) CfgKey() string {
	return strings.TrimPrefix(string(k), "event.")
}

func (k EventAttrKey) String() string {
	return string(k)
}
