package translator

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sinkops"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	warningFromRecorderChannel = "#WFR"
	deviceTimelineIDChannel    = "modality_timeline_id"
	deviceTimelineIDFormat     = "name=%s,id=%s"
)

// handleUserEvent implements spec.md §4.4's USER_EVENT behavior: the
// event-name override-priority chain, the printf-expanded formatted
// string, positional or rule-named argument attributes, the `#WFR`
// special case, and the modality_timeline_id device-channel side
// effect.
func handleUserEvent(state *interpreter.State, log *logrus.Entry, e recorder.UserEvent, base map[string]any) []sinkops.Op {
	formatted := formatUserEvent(e.Format, e.Args)

	handleDeviceTimelineIDChannel(state, log, e)

	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)
	taskName := timelineNameFor(state, ctx.Handle)

	name := userEventName(state, e.Channel, formatted, taskName, log)

	attrs := cloneAttrs(base, map[string]any{
		string(attr.EventUserChannel):         e.Channel,
		string(attr.EventUserFormattedString): formatted,
	})
	for k, v := range currentContextAttrs(state, ctx) {
		attrs[k] = v
	}
	assignArgAttrs(state, e.Channel, e.Format, e.Args, attrs)

	ops, _ := emit(state, timelineID, name, attrs)
	return ops
}

// userEventName resolves the emitted event name per spec.md §4.4's
// priority chain: `#WFR` first (always wins), then a matching
// user-event-channel-name rule, then a matching
// user-event-formatted-string-name rule, then user-event-format-string-channels,
// then the global user-event-format-string flag, then the global
// user-event-channel flag, falling back to "USER_EVENT". The three
// global/channel-list fallbacks and the "USER_EVENT" fallback append
// " @ <task>"; rule-supplied names and `#WFR`'s name are used verbatim.
func userEventName(state *interpreter.State, channel, formatted, taskName string, log *logrus.Entry) string {
	if channel == warningFromRecorderChannel {
		log.WithField("msg", formatted).Warn("target produced a warning on the '#WFR' channel")
		return "WARNING_FROM_RECORDER"
	}

	for _, rule := range state.Config.UserEventChannelName {
		if rule.Channel == channel {
			return rule.EventName
		}
	}
	for _, rule := range state.Config.UserEventFormattedStringName {
		if rule.FormattedString == formatted {
			return rule.EventName
		}
	}
	for _, ch := range state.Config.UserEventFormatStringChannels {
		if ch == channel {
			return formatted + " @ " + taskName
		}
	}
	if state.Config.UserEventFormatString {
		return formatted + " @ " + taskName
	}
	if state.Config.UserEventChannel {
		return channel + " @ " + taskName
	}
	return "USER_EVENT @ " + taskName
}

// assignArgAttrs writes e's arguments into attrs, either under the
// custom keys of a matching user-event-fmt-arg-attr-keys rule (exact
// channel and format-string match, key order = array order) or as
// positional event.argN keys.
func assignArgAttrs(state *interpreter.State, channel, format string, args []any, attrs map[string]any) {
	var keys []string
	for _, rule := range state.Config.UserEventFmtArgAttrKeys {
		if rule.Channel == channel && rule.FormatString == format {
			keys = rule.AttributeKeys
			break
		}
	}
	for i, a := range args {
		if i < len(keys) {
			attrs[string(attr.EventCustomUserArg(keys[i]))] = a
		} else {
			attrs[string(attr.EventUserArg(i))] = a
		}
	}
}

// handleDeviceTimelineIDChannel implements the modality_timeline_id
// USER_EVENT channel convention: a device names an already-bound
// object and supplies a UUID to adopt verbatim as that object's
// timeline id, per original_source/src/context_manager.rs's validation
// chain. Failures are logged at debug/warning and never block the
// event's normal USER_EVENT emission.
func handleDeviceTimelineIDChannel(state *interpreter.State, log *logrus.Entry, e recorder.UserEvent) {
	if !state.Config.UseTimelineIDChannel || e.Channel != deviceTimelineIDChannel {
		return
	}
	if e.Format != deviceTimelineIDFormat || len(e.Args) != 2 {
		log.WithField("channel", e.Channel).Warn("malformed modality_timeline_id event, ignoring")
		return
	}
	objectName, ok := e.Args[0].(string)
	if !ok {
		log.Warn("modality_timeline_id name argument is not a string, ignoring")
		return
	}
	idStr, ok := e.Args[1].(string)
	if !ok {
		log.Warn("modality_timeline_id id argument is not a string, ignoring")
		return
	}
	u, err := uuid.Parse(idStr)
	if err != nil {
		log.WithError(err).Warn("modality_timeline_id id argument is not a valid UUID, ignoring")
		return
	}
	if err := state.SetDeviceTimelineID(objectName, timelineid.FromUUID(u)); err != nil {
		log.WithError(err).Debug("modality_timeline_id assignment rejected")
	}
}

// formatUserEvent renders format against already-typed args the same
// way TraceRecorder's own printf-argument decoding does: each
// %-specifier consumes exactly one argument, rendered by its Go type
// rather than by re-interpreting the C conversion character (the
// external parser has already done the type-correct decode).
func formatUserEvent(format string, args []any) string {
	var b strings.Builder
	argIdx := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		j := i + 1
		for j < len(format) && strings.IndexByte("diouxXeEfFgGsc", format[j]) == -1 {
			j++
		}
		if j >= len(format) {
			b.WriteString(format[i:])
			break
		}
		if argIdx < len(args) {
			b.WriteString(fmt.Sprint(args[argIdx]))
			argIdx++
		}
		i = j
	}
	return b.String()
}

// handleDeviant decodes a custom event in
// [deviant-event-id-base, deviant-event-id-base+5], per spec.md §4.4's
// offset table, grounded on
// original_source/src/deviant_event_parser.rs's byte layout: a 16-byte
// UUID for offsets 0-1, or two 16-byte UUIDs plus a 4-byte little-endian
// success flag for offsets 2-5.
func handleDeviant(state *interpreter.State, log *logrus.Entry, e recorder.Raw, base map[string]any, offset uint16) []sinkops.Op {
	ctx := state.Stack.Top()
	timelineID, _ := state.TimelineForContext(ctx)

	attrs := cloneAttrs(base, currentContextAttrs(state, ctx))

	var name string
	switch offset {
	case 0, 1:
		if len(e.ParameterBytes) < 16 {
			log.WithField("offset", offset).Warn("deviant event payload too short, dropping")
			return nil
		}
		mutatorID, err := uuid.FromBytes(e.ParameterBytes[0:16])
		if err != nil {
			log.WithError(err).Warn("deviant event has malformed mutator id, dropping")
			return nil
		}
		attrs[string(attr.EventMutatorID)] = mutatorID.String()
		if offset == 0 {
			name = "modality.mutator.announced"
		} else {
			name = "modality.mutator.retired"
		}
	case 2, 3, 4, 5:
		if len(e.ParameterBytes) < 36 {
			log.WithField("offset", offset).Warn("deviant event payload too short, dropping")
			return nil
		}
		mutatorID, err := uuid.FromBytes(e.ParameterBytes[0:16])
		if err != nil {
			log.WithError(err).Warn("deviant event has malformed mutator id, dropping")
			return nil
		}
		mutationID, err := uuid.FromBytes(e.ParameterBytes[16:32])
		if err != nil {
			log.WithError(err).Warn("deviant event has malformed mutation id, dropping")
			return nil
		}
		success := binary.LittleEndian.Uint32(e.ParameterBytes[32:36]) != 0
		attrs[string(attr.EventMutatorID)] = mutatorID.String()
		attrs[string(attr.EventMutationID)] = mutationID.String()
		attrs[string(attr.EventMutationSuccess)] = success
		switch offset {
		case 2:
			name = "modality.mutation.command_communicated"
		case 3:
			name = "modality.mutation.clear_communicated"
		case 4:
			name = "modality.mutation.triggered"
		case 5:
			name = "modality.mutation.injected"
		}
	default:
		log.WithField("offset", offset).Debug("unrecognized deviant event offset, dropping")
		return nil
	}

	ops, _ := emit(state, timelineID, name, attrs)
	return ops
}

// handleCustomPrintf decodes the configured custom-printf event id.
// original_source only documents the CLI flag selecting the event id
// (opts.rs's custom_printf_event_id); the payload layout itself is not
// present in the retrieved source, so this follows spec.md §9's note
// to treat the referenced (but unlocated) example as authoritative in
// spirit: a NUL-terminated format string followed by its arguments as
// fixed-width little-endian uint32 values, then routes through the
// same USER_EVENT logic with an empty channel (custom-printf has no
// channel concept of its own). See DESIGN.md for this judgment call.
func handleCustomPrintf(state *interpreter.State, log *logrus.Entry, e recorder.Raw, base map[string]any) []sinkops.Op {
	format, rest := splitNulTerminated(e.ParameterBytes)
	var args []any
	for len(rest) >= 4 {
		args = append(args, binary.LittleEndian.Uint32(rest[0:4]))
		rest = rest[4:]
	}
	synthetic := recorder.UserEvent{Common: e.Common, Channel: "", Format: format, Args: args}
	return handleUserEvent(state, log, synthetic, base)
}

func splitNulTerminated(b []byte) (string, []byte) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:]
		}
	}
	return string(b), nil
}
