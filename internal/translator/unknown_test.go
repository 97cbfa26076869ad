package translator

import (
	"testing"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/stretchr/testify/require"
)

// An ignored object class is still bound (so name lookups resolve) but
// never gets an emitted creation event.
func TestIgnoredObjectClassBoundButNotEmitted(t *testing.T) {
	cfg := config.PluginConfig{IgnoredObjectClasses: []string{"semaphore"}}
	state := newTestState(t, cfg, recorder.Header{})
	log := discardLog()

	ops := Translate(state, log, recorder.SemaphoreCreate{Common: recorder.Common{ID: 1}, Handle: 2, Name: "lock", Counting: false, Count: 1})
	require.Empty(t, ops)

	entry, ok := state.Symbols.Lookup(2)
	require.True(t, ok)
	require.Equal(t, "lock", entry.Name)
}

// With no Deviant base and no custom-printf id configured, a Raw event
// falls through to generic unknown-event handling.
func TestRawFallsThroughToUnknownWithoutConfiguredRanges(t *testing.T) {
	state := newTestState(t, config.PluginConfig{IncludeUnknownEvents: true}, recorder.Header{})
	log := discardLog()

	ops := Translate(state, log, recorder.Raw{Common: recorder.Common{ID: 1}, Type: 42, ParameterCount: 1, ParameterBytes: []byte{7}})
	findEmit(t, ops, "UNKNOWN")
}
