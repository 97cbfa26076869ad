package translator

import (
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/symboltable"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/ticktime"
	"github.com/sirupsen/logrus"
)

// handleTraceStart declares the startup timeline with its full
// header-derived attribute set and emits the TRACE_START event, per
// spec.md §4.4's TRACE_START behavior.
func handleTraceStart(state *interpreter.State, _ recorder.TraceStart, base map[string]any) []sinkops.Op {
	state.MarkTraceStartSeen()

	ctx := interpreter.Context{Kind: interpreter.ContextTask, Handle: state.StartupTaskHandle}
	id, _ := state.TimelineForContext(ctx)

	h := state.Header
	timelineAttrs := map[string]any{
		string(attr.TimelineName):           timelineNameFor(state, ctx.Handle),
		string(attr.TimelineRunID):          state.Config.RunID.String(),
		string(attr.TimelineObjectHandle):   ctx.Handle,
		string(attr.TimelineProtocol):       string(h.Protocol),
		string(attr.TimelineKernelPort):     h.KernelPort,
		string(attr.TimelineKernelVersion):  h.KernelVersion,
		string(attr.TimelineFormatVersion):  h.FormatVersion,
		string(attr.TimelineNumCores):       h.NumCores,
		string(attr.TimelineHeapSize):       h.HeapSize,
		string(attr.TimelineEndianness):     h.Endianness,
		string(attr.TimelineInteractionMode): string(state.Config.InteractionMode),
		string(attr.TimelineCpuUtilizationMeasurementWindowTicks): h.CPUUtilizationMeasurementWindowTicks,
	}
	if state.Config.TimeDomain != "" {
		timelineAttrs[string(attr.TimelineTimeDomain)] = state.Config.TimeDomain
	}
	if h.FrequencyHz > 0 {
		timelineAttrs[string(attr.TimelineFrequency)] = h.FrequencyHz
		timelineAttrs[string(attr.TimelineTimeResolution)] = ticktime.ToNanos(1_000_000_000, h.FrequencyHz)
		timelineAttrs[string(attr.TimelineCpuUtilizationMeasurementWindow)] = ticktime.ToNanos(h.CPUUtilizationMeasurementWindowTicks, h.FrequencyHz)
	}

	ops := []sinkops.Op{sinkops.OpenTimeline(id, timelineNameFor(state, ctx.Handle), timelineAttrs)}
	eventAttrs := cloneAttrs(base, currentContextAttrs(state, ctx))
	emitOps, _ := emit(state, id, "TRACE_START", eventAttrs)
	return append(ops, emitOps...)
}

// handleObjectBinding is the shared worker behind every *_CREATE and
// OBJECT_NAME event: bind the handle in the symbol table and, unless
// the object's class is configured-ignored, emit the creation event on
// the *currently executing* context's timeline (spec.md §4.4: "Emit a
// corresponding event on the current context's timeline") - not a
// timeline of the created object's own, since non-task/ISR objects
// never get their own timeline.
func handleObjectBinding(
	state *interpreter.State,
	log *logrus.Entry,
	handle uint16,
	class symboltable.Class,
	name string,
	props symboltable.Properties,
	eventName string,
	base map[string]any,
	extra map[string]any,
) []sinkops.Op {
	if err := state.Symbols.Bind(handle, class, name, props); err != nil {
		log.WithError(err).Warn("dropped handle rebinding attempt")
		return nil
	}
	if state.ClassIgnored(class) {
		return nil
	}

	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)

	attrs := cloneAttrs(base, map[string]any{
		string(attr.EventObjectHandle): handle,
		string(attr.EventSymbol):       name,
		string(attr.EventClass):        string(class),
	})
	for k, v := range extra {
		attrs[k] = v
	}
	for k, v := range currentContextAttrs(state, ctx) {
		attrs[k] = v
	}

	ops, _ := emit(state, timelineID, eventName, attrs)
	return ops
}

// switchContext is the shared worker behind TASK_ACTIVATE,
// TASK_SWITCH_ISR_BEGIN, and TASK_SWITCH_ISR_RESUME: resolve/declare
// the new context's timeline, arrange the fully-linearized interaction
// from prevCtx (the context that was genuinely running immediately
// before this switch), and emit name with attrs merged on top of base.
func switchContext(
	state *interpreter.State,
	newCtx interpreter.Context,
	prevCtx interpreter.Context,
	haveSrc bool,
	name string,
	base map[string]any,
	extra map[string]any,
) []sinkops.Op {
	id, isNew := state.TimelineForContext(newCtx)

	var ops []sinkops.Op
	if isNew {
		attrs := map[string]any{
			string(attr.TimelineName):         timelineNameFor(state, newCtx.Handle),
			string(attr.TimelineRunID):        state.Config.RunID.String(),
			string(attr.TimelineObjectHandle): newCtx.Handle,
		}
		if state.Config.TimeDomain != "" {
			attrs[string(attr.TimelineTimeDomain)] = state.Config.TimeDomain
		}
		ops = append(ops, sinkops.OpenTimeline(id, timelineNameFor(state, newCtx.Handle), attrs))
	}

	attrs := cloneAttrs(base, extra)
	for k, v := range currentContextAttrs(state, newCtx) {
		attrs[k] = v
	}

	if haveSrc && state.Config.InteractionMode == config.InteractionModeFullyLinearized && !state.Config.DisableTaskInteractions {
		prevID, _ := state.TimelineForContext(prevCtx)
		if prevOrd, ok := state.LastOrdinal(prevID); ok && !prevID.Equal(id) {
			state.SetPendingInteractionSource(id, prevID, prevOrd)
		}
	}

	emitOps, _ := emit(state, id, name, attrs)
	return append(ops, emitOps...)
}

// handleTaskActivate implements spec.md §4.4's TASK_ACTIVATE behavior:
// replace the task at the bottom of the active-context stack, closing
// out the window of whichever context was genuinely running beforehand
// (the previous top - any further nested ISR frames it unwound through
// were themselves already inactive, having been preempted in turn).
func handleTaskActivate(state *interpreter.State, e recorder.TaskActivate, base map[string]any) []sinkops.Op {
	prevTop, implicitExits := state.Stack.SwitchTask(e.Handle)
	closeRunningChain(state, prevTop, implicitExits)

	newCtx := interpreter.Context{Kind: interpreter.ContextTask, Handle: e.Handle}
	primeWindow(state, newCtx)

	extra := map[string]any{string(attr.EventTaskPriority): e.Priority}
	ops := switchContext(state, newCtx, prevTop, true, "TASK_ACTIVATE", base, extra)
	return appendWindowCloseIfDue(state, newCtx, ops)
}

// handleIsrBegin implements TASK_SWITCH_ISR_BEGIN: push a new ISR frame.
func handleIsrBegin(state *interpreter.State, e recorder.TaskSwitchIsrBegin, base map[string]any) []sinkops.Op {
	prevTop := state.Stack.EnterISR(e.Handle)
	closeOutWindow(state, prevTop, true)

	newCtx := interpreter.Context{Kind: interpreter.ContextISR, Handle: e.Handle}
	primeWindow(state, newCtx)

	extra := map[string]any{string(attr.EventIsrPriority): e.Priority}
	ops := switchContext(state, newCtx, prevTop, true, "TASK_SWITCH_ISR_BEGIN", base, extra)
	return appendWindowCloseIfDue(state, newCtx, ops)
}

// handleIsrResume implements TASK_SWITCH_ISR_RESUME: the ISR named by
// e.Handle resumes, implicitly exiting any ISR frames nested above it.
func handleIsrResume(state *interpreter.State, log *logrus.Entry, e recorder.TaskSwitchIsrResume, base map[string]any) []sinkops.Op {
	resumed, implicitExits := state.Stack.ResumeISR(e.Handle)

	var prevTop interpreter.Context
	haveSrc := len(implicitExits) > 0
	if haveSrc {
		log.WithField("count", len(implicitExits)).Debug("isr resume implicitly closed nested isr frames")
		prevTop = implicitExits[0]
		closeRunningChain(state, prevTop, implicitExits)
	}

	newCtx := interpreter.Context{Kind: interpreter.ContextISR, Handle: e.Handle}
	_ = resumed // resumed == newCtx except in the malformed-trace recovery path
	primeWindow(state, newCtx)

	ops := switchContext(state, newCtx, prevTop, haveSrc, "TASK_SWITCH_ISR_RESUME", base, nil)
	return appendWindowCloseIfDue(state, newCtx, ops)
}

// closeRunningChain closes out the window of whichever context was
// genuinely executing (innermost, prevTop/implicitExits[0]) crediting
// it as running up to now, and re-syncs the remaining, already-inactive
// unwound frames' windows without crediting them any runtime.
func closeRunningChain(state *interpreter.State, prevTop interpreter.Context, implicitExits []interpreter.Context) {
	closeOutWindow(state, prevTop, true)
	if len(implicitExits) == 0 {
		return
	}
	for _, c := range implicitExits[1:] {
		closeOutWindow(state, c, false)
	}
}

// primeWindow anchors ctx's CPU window at the current tick before it
// starts (or resumes) running, crediting the gap since its own last
// accumulate call as not-running.
func primeWindow(state *interpreter.State, ctx interpreter.Context) {
	id, _ := state.TimelineForContext(ctx)
	state.CPUWindowFor(id).Accumulate(state.LastExtendedTimerTicks(), false)
}

// closeOutWindow credits ctx's window with the interval since its last
// accumulate call as running (or not), at the moment ctx stops being
// (or was never actually) the active context.
func closeOutWindow(state *interpreter.State, ctx interpreter.Context, running bool) {
	id, _ := state.TimelineForContext(ctx)
	state.CPUWindowFor(id).Accumulate(state.LastExtendedTimerTicks(), running)
}

// appendWindowCloseIfDue attaches CPU-utilization attributes to the
// EmitEvent op targeting newCtx's timeline in ops when its window has
// just elapsed, per spec.md §4.6 ("attach to the next TASK_ACTIVATE/
// stats event").
func appendWindowCloseIfDue(state *interpreter.State, newCtx interpreter.Context, ops []sinkops.Op) []sinkops.Op {
	if state.CPUWindowTicks == 0 {
		return ops
	}
	id, _ := state.TimelineForContext(newCtx)
	closed, attrs := state.CPUWindowFor(id).CloseIfElapsed(state.LastExtendedTimerTicks(), state.CPUWindowTicks)
	if !closed {
		return ops
	}
	if state.FrequencyHz > 0 {
		windowNs := ticktime.ToNanos(attrs[string(attr.EventRuntimeWindowTicks)].(uint64), state.FrequencyHz)
		inWindowNs := ticktime.ToNanos(attrs[string(attr.EventRuntimeInWindowTicks)].(uint64), state.FrequencyHz)
		totalNs := ticktime.ToNanos(attrs[string(attr.EventTotalRuntimeTicks)].(uint64), state.FrequencyHz)
		attrs[string(attr.EventRuntimeWindow)] = windowNs
		attrs[string(attr.EventRuntimeInWindow)] = inWindowNs
		attrs[string(attr.EventTotalRuntime)] = totalNs
		attrs[string(attr.EventRuntime)] = totalNs
	}
	for i := range ops {
		if ops[i].Kind == sinkops.KindEmitEvent && ops[i].Timeline.Equal(id) {
			for k, v := range attrs {
				ops[i].EventAttrs[k] = v
			}
			break
		}
	}
	return ops
}
