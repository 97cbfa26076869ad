package recorder

// Common is embedded in every typed Event and carries the fields every
// event kind shares: the raw event id, the raw (possibly wrapped)
// 32-bit event counter, and the raw (possibly wrapped) 32-bit timer
// tick count. The translator rollover-extends EventCount and
// TimerTicks before emitting them.
type Common struct {
	ID         uint16
	EventCount uint32
	TimerTicks uint32
}

// Event is the sum type the parser yields per decoded record. Every
// named TraceRecorder event kind this adapter understands has its own
// concrete type; anything else arrives as Raw.
type Event interface {
	Header() Common
}

func (c Common) Header() Common { return c }

// TraceStart marks the beginning of the recording; its fields are
// informational only, the bulk of the startup-timeline attributes come
// from the stream Header.
type TraceStart struct {
	Common
}

// ObjectName binds a handle to a bare name without creating a typed
// kernel object (used for objects whose *_CREATE event predates the
// recorder's ability to carry a name inline, or for renames).
type ObjectName struct {
	Common
	Handle uint16
	Name   string
}

// TaskCreate, QueueCreate, SemaphoreCreate, MutexCreate,
// EventGroupCreate, StreamBufferCreate, MessageBufferCreate bind a
// handle to a named, classed kernel object with class-specific
// properties.
type TaskCreate struct {
	Common
	Handle   uint16
	Name     string
	Priority uint32
}

type QueueCreate struct {
	Common
	Handle uint16
	Name   string
	Length uint32
}

type SemaphoreCreate struct {
	Common
	Handle   uint16
	Name     string
	Counting bool
	Count    uint32
}

type MutexCreate struct {
	Common
	Handle uint16
	Name   string
}

type EventGroupCreate struct {
	Common
	Handle uint16
	Name   string
}

type StreamBufferCreate struct {
	Common
	Handle uint16
	Name   string
	Size   uint32
}

type MessageBufferCreate struct {
	Common
	Handle uint16
	Name   string
	Size   uint32
}

type StatemachineCreate struct {
	Common
	Handle uint16
	Name   string
}

type StatemachineStateCreate struct {
	Common
	Handle             uint16
	StateMachineHandle uint16
	Name               string
}

// TaskActivate replaces the task at the bottom of the active-context
// stack.
type TaskActivate struct {
	Common
	Handle   uint16
	Priority uint32
}

// TaskSwitchIsrBegin pushes a new ISR onto the active-context stack;
// TaskSwitchIsrResume replaces the ISR at the top of the stack (the
// previous ISR returned without an intervening task resume).
type TaskSwitchIsrBegin struct {
	Common
	Handle   uint16
	Priority uint32
}

type TaskSwitchIsrResume struct {
	Common
	Handle   uint16
	Priority uint32
}

// QueueDirection distinguishes which side of an IPC pair a queue event
// represents.
type QueueDirection string

const (
	QueueDirectionSend    QueueDirection = "send"
	QueueDirectionReceive QueueDirection = "receive"
)

// QueueEvent covers QUEUE_SEND, QUEUE_RECEIVE, and their _FROM_ISR and
// _PEEK variants; Name carries the exact event name to emit (so the
// translator doesn't need to special-case each wire event type by hand).
type QueueEvent struct {
	Common
	Name      string
	Handle    uint16
	Direction QueueDirection
}

// TaskNotifyDirection distinguishes TASK_NOTIFY from
// TASK_NOTIFY_RECEIVE for IPC pairing on a task handle.
type TaskNotifyDirection string

const (
	TaskNotifyDirectionSend    TaskNotifyDirection = "send"
	TaskNotifyDirectionReceive TaskNotifyDirection = "receive"
)

type TaskNotify struct {
	Common
	Handle    uint16
	Direction TaskNotifyDirection
}

// UserEvent carries a decoded USER_EVENT: a channel name, a format
// string, and already-typed arguments (the external parser is
// responsible for printf-style argument decoding from the raw payload).
type UserEvent struct {
	Common
	Channel string
	Format  string
	Args    []any
}

// MemoryEvent covers MEMORY_ALLOC and MEMORY_FREE.
type MemoryEvent struct {
	Common
	Freed        bool
	Address      uint32
	Size         uint32
	HeapCurrent  uint32
	HeapHighMark uint32
}

// UnusedStack carries a stack high-water-mark sample for a task.
type UnusedStack struct {
	Common
	TaskHandle uint16
	LowMark    uint32
}

// StatemachineStateChange records a state transition.
type StatemachineStateChange struct {
	Common
	StateMachineHandle uint16
	StateHandle        uint16
}

// Raw is the fallback envelope for event kinds this adapter does not
// decode into a typed variant: Deviant custom events, the
// custom-printf event, and any other unrecognized type. This is the
// payload the translator is responsible for decoding by hand.
type Raw struct {
	Common
	Type            uint16
	ParameterCount  uint8
	ParameterBytes  []byte
}
