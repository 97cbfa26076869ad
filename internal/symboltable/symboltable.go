// Package symboltable maintains the append-only handle -> (class, name,
// properties) mapping populated incrementally as OBJECT_NAME,
// TASK_CREATE, QUEUE_CREATE, and STATEMACHINE_* events arrive.
package symboltable

import "fmt"

// Class identifies the kind of kernel object a handle names.
type Class string

const (
	ClassTask          Class = "task"
	ClassISR           Class = "isr"
	ClassQueue         Class = "queue"
	ClassSemaphore     Class = "semaphore"
	ClassMutex         Class = "mutex"
	ClassEventGroup    Class = "event_group"
	ClassStreamBuffer  Class = "stream_buffer"
	ClassMessageBuffer Class = "message_buffer"
	ClassStateMachine  Class = "state_machine"
	ClassState         Class = "state"
	ClassChannel       Class = "channel"
	ClassUnknown       Class = "unknown"
)

// Properties holds the class-specific fields a *_CREATE event carries,
// attached to the symbol-table entry alongside the bare name. Only the
// fields relevant to the entry's Class are populated.
type Properties struct {
	Priority       *uint32
	StackSize      *uint32
	QueueLength    *uint32
	HeapSize       *uint32
	StateMachine   string
	States         []string
}

// Entry is one bound handle.
type Entry struct {
	Handle     uint16
	Class      Class
	Name       string
	Properties Properties
}

// Table is the append-only handle -> Entry map. It is not safe for
// concurrent use; owned exclusively by the translator.
type Table struct {
	byHandle map[uint16]*Entry
	byName   map[string]uint16
}

// New returns an empty Table.
func New() *Table {
	return &Table{byHandle: make(map[uint16]*Entry), byName: make(map[string]uint16)}
}

// RebindError is returned by Bind when a handle is already bound to a
// different (class, name) than the one offered. It is never fatal: the
// caller logs it as a warning and keeps the table's original entry.
type RebindError struct {
	Handle   uint16
	Existing Entry
	Attempted Entry
}

func (e *RebindError) Error() string {
	return fmt.Sprintf("symboltable: handle %d already bound to %s %q, refusing rebind to %s %q",
		e.Handle, e.Existing.Class, e.Existing.Name, e.Attempted.Class, e.Attempted.Name)
}

// Bind records the first observation of a handle. A second Bind call
// for the same handle with a different class or name returns a
// *RebindError and leaves the table's original entry untouched; the
// same (class, name) observed again is a no-op success (not an error),
// since some event kinds legitimately repeat an OBJECT_NAME.
func (t *Table) Bind(handle uint16, class Class, name string, props Properties) error {
	if existing, ok := t.byHandle[handle]; ok {
		if existing.Class != class || existing.Name != name {
			return &RebindError{
				Handle:   handle,
				Existing: *existing,
				Attempted: Entry{Handle: handle, Class: class, Name: name, Properties: props},
			}
		}
		return nil
	}
	t.byHandle[handle] = &Entry{Handle: handle, Class: class, Name: name, Properties: props}
	t.byName[name] = handle
	return nil
}

// Lookup returns the entry bound to handle, if any.
func (t *Table) Lookup(handle uint16) (Entry, bool) {
	e, ok := t.byHandle[handle]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// HandleByName is the reverse of Lookup, used to resolve the object
// named on the modality_timeline_id channel back to its handle.
func (t *Table) HandleByName(name string) (uint16, bool) {
	h, ok := t.byName[name]
	return h, ok
}

// Name is a convenience for the common case of wanting just the bound
// name, falling back to a synthetic "handle-<n>" for unbound handles
// (events may legitimately reference a handle before its *_CREATE has
// been observed, e.g. the reserved handle 0).
func (t *Table) Name(handle uint16) string {
	if e, ok := t.byHandle[handle]; ok {
		return e.Name
	}
	return fmt.Sprintf("handle-%d", handle)
}
