package translator

import (
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
	"github.com/sirupsen/logrus"
)

// handleRaw dispatches an undecoded recorder.Raw event: the Deviant
// custom-event range, the single configured custom-printf id, or
// generic unknown-event handling, in that order. Per spec.md §8's
// boundary case, a custom-printf id that collides with the Deviant
// range loses - Deviant decoding always wins.
func handleRaw(state *interpreter.State, log *logrus.Entry, e recorder.Raw, base map[string]any) []sinkops.Op {
	if base_ := state.Config.DeviantEventIDBase; base_ != nil {
		lo, hi := *base_, *base_+5
		if e.Type >= lo && e.Type <= hi {
			return handleDeviant(state, log, e, base, e.Type-lo)
		}
	}
	if id := state.Config.CustomPrintfEventID; id != nil && e.Type == *id {
		return handleCustomPrintf(state, log, e, base)
	}
	return handleUnknown(state, log, e, base)
}

// handleUnknown implements spec.md §4.4's fallback for event types the
// decoder doesn't recognize: dropped unless include-unknown-events is
// set, in which case a synthetic event carries the raw type tag and
// parameter bytes for offline inspection.
func handleUnknown(state *interpreter.State, log *logrus.Entry, e recorder.Raw, base map[string]any) []sinkops.Op {
	if !state.Config.IncludeUnknownEvents {
		log.WithField("type", e.Type).Debug("dropping unrecognized event")
		return nil
	}

	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)

	attrs := cloneAttrs(base, map[string]any{
		string(attr.EventType):            e.Type,
		string(attr.EventParameterCount):  e.ParameterCount,
	})
	for k, v := range currentContextAttrs(state, ctx) {
		attrs[k] = v
	}
	attrs["event.parameter_bytes"] = e.ParameterBytes

	ops, _ := emit(state, timelineID, "UNKNOWN", attrs)
	return ops
}
