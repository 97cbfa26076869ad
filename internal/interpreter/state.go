// Package interpreter holds the mutable state translator.Translate
// folds every decoded recorder.Event into: the symbol table, the
// rollover-extended counters, the active-context stack, and the
// per-timeline CPU-utilization windows. State is owned exclusively by
// Translate, per spec.md §5's single-writer policy for shared state.
package interpreter

import (
	"fmt"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/rollover"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/symboltable"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
)

// State is the interpreter's complete working set for one import run.
type State struct {
	Config config.PluginConfig

	Symbols *symboltable.Table
	Stack   *ContextStack

	StartupTaskHandle uint16
	StartupTimeline   timelineid.ID

	// Header is the one-time bundle the event source yielded before any
	// events; TRACE_START's handler reads it to build the startup
	// timeline's internal attributes.
	Header recorder.Header

	FrequencyHz    uint64
	CPUWindowTicks uint64

	eventCounter *rollover.Tracker
	timerTicks   *rollover.Tracker

	expectedNextEventCount uint64
	haveExpectedEventCount bool

	hasLastTimerTicks bool
	lastTimerTicks    uint64

	objectTimelineIDs map[uint16]timelineid.ID
	cpuWindows        map[timelineid.ID]*CPUWindow

	sawTraceStart bool

	ignoredClasses map[symboltable.Class]bool

	// lastOrdinal mirrors the per-timeline ordinal sink.Buffered will
	// assign, so the translator can originate an interaction's source
	// side (spec.md §4.3's "per-timeline last event id") without
	// waiting on a round-trip to the sink. Valid because ops are
	// delivered to the sink in exactly the order they are produced
	// here (spec.md §5): the Nth EmitEvent op this package builds for
	// timeline T is always the Nth ordinal the sink assigns it.
	lastOrdinal map[timelineid.ID]uint64

	// pendingInteractionSrc holds, per destination timeline, the
	// (timeline, ordinal) of the event that should be the source of an
	// interaction landing on the next event emitted there - the
	// "interaction pending-buffer" design note (spec.md §9): recorded
	// on a context switch-out, consumed on the next emit into that
	// timeline.
	pendingInteractionSrc map[timelineid.ID]ipcEndpoint

	// pendingIPC holds unmatched SEND/NOTIFY-style endpoints awaiting
	// their RECEIVE pair, keyed by (family, handle); spec.md §4.4's "at
	// most one outstanding pair per (queue, direction)" rule.
	pendingIPC map[ipcKey]ipcEndpoint
}

// ipcEndpoint names one side of an interaction: a timeline and the
// ordinal of the event on it.
type ipcEndpoint struct {
	Timeline timelineid.ID
	Ordinal  uint64
}

// ipcKey identifies one IPC pairing slot: a kernel-object handle within
// a family of IPC primitive (queue send/receive, task notify, ...).
type ipcKey struct {
	Family string
	Handle uint16
}

// NewState builds interpreter state for one import run. startupTaskHandle
// is the handle of the object translator resolved as the startup
// task (config.PluginConfig.StartupTaskName, or the recorder's default),
// used both to seed the active-context stack and, when
// Config.SingleTaskTimeline is set, as the sole timeline every context
// maps to.
func NewState(cfg config.PluginConfig, hdr recorder.Header, startupTaskHandle uint16) *State {
	s := &State{
		Config:            cfg,
		Symbols:           symboltable.New(),
		StartupTaskHandle: startupTaskHandle,
		Header:            hdr,
		FrequencyHz:       hdr.FrequencyHz,
		CPUWindowTicks:    hdr.CPUUtilizationMeasurementWindowTicks,
		eventCounter:      rollover.New(),
		timerTicks:        rollover.New(),
		objectTimelineIDs: make(map[uint16]timelineid.ID),
		cpuWindows:        make(map[timelineid.ID]*CPUWindow),
		lastOrdinal:           make(map[timelineid.ID]uint64),
		pendingInteractionSrc: make(map[timelineid.ID]ipcEndpoint),
		pendingIPC:            make(map[ipcKey]ipcEndpoint),
		ignoredClasses:        make(map[symboltable.Class]bool, len(cfg.IgnoredObjectClasses)),
	}
	for _, c := range cfg.IgnoredObjectClasses {
		s.ignoredClasses[symboltable.Class(c)] = true
	}
	s.Stack = NewContextStack(startupTaskHandle)
	// Derived, not registered: the startup timeline is only declared to
	// the sink (and TimelineForContext's isNew flips true) the first
	// time a handler actually resolves it, normally at TRACE_START.
	s.StartupTimeline = timelineid.Derive(cfg.RunID, startupTaskHandle)
	return s
}

// SawTraceStart reports whether TRACE_START has already been observed
// this run.
func (s *State) SawTraceStart() bool { return s.sawTraceStart }

// MarkTraceStartSeen records that TRACE_START has been observed.
func (s *State) MarkTraceStartSeen() { s.sawTraceStart = true }

// ClassIgnored reports whether class is listed in
// Config.IgnoredObjectClasses: objects of an ignored class are still
// bound in the symbol table (so later lookups by name/handle resolve)
// but never get an emitted event of their own.
func (s *State) ClassIgnored(class symboltable.Class) bool {
	return s.ignoredClasses[class]
}

// ObserveEventCount rollover-extends the wire event counter and reports
// how many events were dropped before it, per spec.md §4.5's
// expected-vs-observed gap detection. The first call never reports a
// drop, since there is no prior expectation to compare against.
func (s *State) ObserveEventCount(raw uint32) (extended uint64, dropped uint64) {
	extended = s.eventCounter.Extend(raw)
	if s.haveExpectedEventCount && extended > s.expectedNextEventCount {
		dropped = extended - s.expectedNextEventCount
	}
	s.expectedNextEventCount = extended + 1
	s.haveExpectedEventCount = true
	return extended, dropped
}

// ObserveTimerTicks rollover-extends the wire timer-tick count and
// reports whether it moved forward relative to the previous call
// (false means the stream's timestamps went backwards, worth a
// warning but not a fatal condition).
func (s *State) ObserveTimerTicks(raw uint32) (extended uint64, monotonic bool) {
	extended = s.timerTicks.Extend(raw)
	monotonic = !s.hasLastTimerTicks || extended >= s.lastTimerTicks
	s.hasLastTimerTicks = true
	s.lastTimerTicks = extended
	return extended, monotonic
}

// LastExtendedTimerTicks returns the most recent value ObserveTimerTicks
// produced, the "now" used by CPU-window accumulation when a context
// switch event's own timer ticks have already been folded into base
// attributes by Translate's common-attrs step.
func (s *State) LastExtendedTimerTicks() uint64 {
	return s.lastTimerTicks
}

// TimelineForContext resolves ctx to a timeline id, applying
// SingleTaskTimeline/FlattenISRTimelines, and registers a freshly
// derived id (run-id ⊕ object-handle) the first time a given resolved
// handle is seen. isNew reports whether this is that first sighting, so
// the caller knows to emit an OpenTimeline op with fresh metadata
// rather than just an EmitEvent against an already-declared timeline.
func (s *State) TimelineForContext(ctx Context) (id timelineid.ID, isNew bool) {
	handle := s.resolveTimelineHandle(ctx)
	if existing, ok := s.objectTimelineIDs[handle]; ok {
		return existing, false
	}
	id = timelineid.Derive(s.Config.RunID, handle)
	s.objectTimelineIDs[handle] = id
	return id, true
}

func (s *State) resolveTimelineHandle(ctx Context) uint16 {
	switch {
	case s.Config.SingleTaskTimeline:
		return s.StartupTaskHandle
	case ctx.Kind == ContextISR && s.Config.FlattenISRTimelines:
		return s.Stack.Base().Handle
	default:
		return ctx.Handle
	}
}

// SetDeviceTimelineID registers a device-provided timeline id for the
// object named objectName, from a well-formed modality_timeline_id
// USER_EVENT. It refuses (returning an error the caller should log as a
// warning, not treat as fatal) when Config.UseTimelineIDChannel is off,
// objectName has no known handle yet, or that handle already has a
// timeline id — mirroring the "ignore if already assigned" rule of the
// device-timeline-id channel.
func (s *State) SetDeviceTimelineID(objectName string, id timelineid.ID) error {
	if !s.Config.UseTimelineIDChannel {
		return fmt.Errorf("interpreter: use-timeline-id-channel is disabled")
	}
	handle, ok := s.Symbols.HandleByName(objectName)
	if !ok {
		return fmt.Errorf("interpreter: object %q has not been registered yet, ignoring timeline-id", objectName)
	}
	if _, exists := s.objectTimelineIDs[handle]; exists {
		return fmt.Errorf("interpreter: object %q already has a timeline-id, ignoring provided timeline-id", objectName)
	}
	s.objectTimelineIDs[handle] = id
	return nil
}

// CPUWindowFor returns the CPUWindow tracking id's runtime, creating it
// on first use.
func (s *State) CPUWindowFor(id timelineid.ID) *CPUWindow {
	w, ok := s.cpuWindows[id]
	if !ok {
		w = NewCPUWindow()
		s.cpuWindows[id] = w
	}
	return w
}

// AllTimelines returns every timeline id registered so far, in no
// particular order.
func (s *State) AllTimelines() []timelineid.ID {
	ids := make([]timelineid.ID, 0, len(s.objectTimelineIDs))
	for _, id := range s.objectTimelineIDs {
		ids = append(ids, id)
	}
	return ids
}

// NextOrdinal advances and returns the next ordinal for timeline id.
// Call exactly once per EmitEvent op the translator builds for id, in
// emission order.
func (s *State) NextOrdinal(id timelineid.ID) uint64 {
	s.lastOrdinal[id]++
	return s.lastOrdinal[id]
}

// LastOrdinal returns the most recently assigned ordinal for id, if
// any event has been emitted on it yet.
func (s *State) LastOrdinal(id timelineid.ID) (uint64, bool) {
	ord, ok := s.lastOrdinal[id]
	return ord, ok
}

// SetPendingInteractionSource records that the next event emitted on
// dst should receive an interaction originating at (src, srcOrdinal),
// per spec.md §9's interaction pending-buffer design note. A context
// switch may overwrite a still-unconsumed entry; only the most recent
// switch-out is a valid interaction source.
func (s *State) SetPendingInteractionSource(dst timelineid.ID, src timelineid.ID, srcOrdinal uint64) {
	s.pendingInteractionSrc[dst] = ipcEndpoint{Timeline: src, Ordinal: srcOrdinal}
}

// TakePendingInteractionSource consumes and returns the pending
// interaction source for dst, if one was recorded.
func (s *State) TakePendingInteractionSource(dst timelineid.ID) (src timelineid.ID, srcOrdinal uint64, ok bool) {
	ep, ok := s.pendingInteractionSrc[dst]
	if !ok {
		return timelineid.ID{}, 0, false
	}
	delete(s.pendingInteractionSrc, dst)
	return ep.Timeline, ep.Ordinal, true
}

// RecordIPCSend records the send-side endpoint of an IPC pair (queue
// send, task notify, ...) awaiting its matching receive. A second send
// for the same (family, handle) before a matching receive silently
// replaces the first, per spec.md §4.4's "at most one outstanding pair"
// rule - the stale endpoint is simply never paired.
func (s *State) RecordIPCSend(family string, handle uint16, timeline timelineid.ID, ordinal uint64) {
	s.pendingIPC[ipcKey{Family: family, Handle: handle}] = ipcEndpoint{Timeline: timeline, Ordinal: ordinal}
}

// TakeIPCSend consumes and returns the pending send-side endpoint for
// (family, handle), if one is outstanding.
func (s *State) TakeIPCSend(family string, handle uint16) (timeline timelineid.ID, ordinal uint64, ok bool) {
	key := ipcKey{Family: family, Handle: handle}
	ep, ok := s.pendingIPC[key]
	if !ok {
		return timelineid.ID{}, 0, false
	}
	delete(s.pendingIPC, key)
	return ep.Timeline, ep.Ordinal, true
}
