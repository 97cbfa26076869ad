package translator

import (
	"encoding/binary"
	"testing"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/interpreter"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// S2 — User-event routing: a fmt-arg-attr-keys rule names the args,
// the global user-event-channel flag names the event "<channel> @ <task>".
func TestUserEventRoutingWithFmtArgAttrKeys(t *testing.T) {
	cfg := config.PluginConfig{
		UserEventChannel: true,
		UserEventFmtArgAttrKeys: []config.FmtArgAttrKeysRule{
			{Channel: "comms-tx", FormatString: "%u %u %d", AttributeKeys: []string{"type", "seqnum", "adc"}},
		},
	}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 1}, Handle: 1, Name: "Comms", Priority: 1})
	Translate(state, log, recorder.TaskActivate{Common: recorder.Common{ID: 2}, Handle: 1, Priority: 1})

	ops := Translate(state, log, recorder.UserEvent{
		Common:  recorder.Common{ID: 3},
		Channel: "comms-tx",
		Format:  "%u %u %d",
		Args:    []any{uint32(240), uint32(1), int32(-128)},
	})

	e := findEmit(t, ops, "comms-tx @ Comms")
	require.Equal(t, "comms-tx", e.EventAttrs[string(attr.EventUserChannel)])
	require.Equal(t, "240 1 -128", e.EventAttrs[string(attr.EventUserFormattedString)])
	require.Equal(t, uint32(240), e.EventAttrs["event.type"])
	require.Equal(t, uint32(1), e.EventAttrs["event.seqnum"])
	require.Equal(t, int32(-128), e.EventAttrs["event.adc"])
}

// A channel-name rule wins over the global channel/format-string flags.
func TestUserEventChannelNameRuleWins(t *testing.T) {
	cfg := config.PluginConfig{
		UserEventChannel: true,
		UserEventChannelName: []config.ChannelNameRule{
			{Channel: "diag", EventName: "DIAGNOSTIC"},
		},
	}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	ops := Translate(state, log, recorder.UserEvent{Common: recorder.Common{ID: 1}, Channel: "diag", Format: "hello"})
	findEmit(t, ops, "DIAGNOSTIC")
}

// Boundary case: channel #WFR is always named WARNING_FROM_RECORDER.
func TestWarningFromRecorderChannel(t *testing.T) {
	cfg := config.PluginConfig{
		UserEventChannelName: []config.ChannelNameRule{
			{Channel: "#WFR", EventName: "SHOULD_NOT_WIN"},
		},
	}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	ops := Translate(state, log, recorder.UserEvent{Common: recorder.Common{ID: 1}, Channel: "#WFR", Format: "overflow"})
	findEmit(t, ops, "WARNING_FROM_RECORDER")
}

// The modality_timeline_id channel adopts a device-provided UUID for an
// already-bound object's timeline id.
func TestModalityTimelineIDChannel(t *testing.T) {
	cfg := config.PluginConfig{UseTimelineIDChannel: true}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	Translate(state, log, recorder.TaskCreate{Common: recorder.Common{ID: 1}, Handle: 4, Name: "Worker", Priority: 1})

	want := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	Translate(state, log, recorder.UserEvent{
		Common:  recorder.Common{ID: 2},
		Channel: "modality_timeline_id",
		Format:  "name=%s,id=%s",
		Args:    []any{"Worker", want.String()},
	})

	handle, ok := state.Symbols.HandleByName("Worker")
	require.True(t, ok)
	require.Equal(t, uint16(4), handle)

	id, isNew := state.TimelineForContext(interpreter.Context{Kind: interpreter.ContextTask, Handle: 4})
	require.False(t, isNew)
	require.Equal(t, timelineid.FromUUID(want), id)
}

// Deviant mutator-announced decode: a single 16-byte UUID at offset 0.
func TestDeviantMutatorAnnounced(t *testing.T) {
	base := uint16(500)
	cfg := config.PluginConfig{DeviantEventIDBase: &base}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	mutatorID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	payload, _ := mutatorID.MarshalBinary()

	ops := Translate(state, log, recorder.Raw{Common: recorder.Common{ID: 1}, Type: base, ParameterBytes: payload})
	e := findEmit(t, ops, "modality.mutator.announced")
	require.Equal(t, mutatorID.String(), e.EventAttrs[string(attr.EventMutatorID)])
}

// Deviant mutation-triggered decode: two UUIDs plus a success flag.
func TestDeviantMutationTriggered(t *testing.T) {
	base := uint16(500)
	cfg := config.PluginConfig{DeviantEventIDBase: &base}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	mutatorID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	mutationID := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	mutatorBytes, _ := mutatorID.MarshalBinary()
	mutationBytes, _ := mutationID.MarshalBinary()
	success := make([]byte, 4)
	binary.LittleEndian.PutUint32(success, 1)
	payload := append(append(mutatorBytes, mutationBytes...), success...)

	ops := Translate(state, log, recorder.Raw{Common: recorder.Common{ID: 1}, Type: base + 4, ParameterBytes: payload})
	e := findEmit(t, ops, "modality.mutation.triggered")
	require.Equal(t, mutatorID.String(), e.EventAttrs[string(attr.EventMutatorID)])
	require.Equal(t, mutationID.String(), e.EventAttrs[string(attr.EventMutationID)])
	require.Equal(t, true, e.EventAttrs[string(attr.EventMutationSuccess)])
}

// Boundary case: a custom-printf ID colliding with the Deviant base
// range — Deviant decoding wins.
func TestCustomPrintfCollisionWithDeviantBaseLosesToDeviant(t *testing.T) {
	base := uint16(500)
	cfg := config.PluginConfig{DeviantEventIDBase: &base, CustomPrintfEventID: &base}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	mutatorID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	payload, _ := mutatorID.MarshalBinary()

	ops := Translate(state, log, recorder.Raw{Common: recorder.Common{ID: 1}, Type: base, ParameterBytes: payload})
	findEmit(t, ops, "modality.mutator.announced")
}

// Custom-printf decode routes through the same USER_EVENT naming path.
func TestCustomPrintfDecodeRoutesAsUserEvent(t *testing.T) {
	printfID := uint16(700)
	cfg := config.PluginConfig{CustomPrintfEventID: &printfID, UserEventFormatString: true}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	var payload []byte
	payload = append(payload, []byte("value=%u")...)
	payload = append(payload, 0)
	arg := make([]byte, 4)
	binary.LittleEndian.PutUint32(arg, 42)
	payload = append(payload, arg...)

	ops := Translate(state, log, recorder.Raw{Common: recorder.Common{ID: 1}, Type: printfID, ParameterBytes: payload})
	e := findEmit(t, ops, "value=42 @ handle-0")
	require.Equal(t, "value=42", e.EventAttrs[string(attr.EventUserFormattedString)])
}
