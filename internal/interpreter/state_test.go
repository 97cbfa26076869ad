package interpreter

import (
	"testing"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/recorder"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/symboltable"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/timelineid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timelineidFromString(t *testing.T, s string) timelineid.ID {
	t.Helper()
	return timelineid.FromUUID(uuid.MustParse(s))
}

func newTestState(t *testing.T, mutate func(*config.PluginConfig)) *State {
	t.Helper()
	cfg := config.PluginConfig{RunID: uuid.MustParse("11111111-1111-1111-1111-111111111111")}
	if mutate != nil {
		mutate(&cfg)
	}
	hdr := recorder.Header{FrequencyHz: 48_000_000, CPUUtilizationMeasurementWindowTicks: 24_000_000}
	return NewState(cfg, hdr, 1)
}

func TestNewStateDerivesStartupTimeline(t *testing.T) {
	s := newTestState(t, nil)
	assert.False(t, s.StartupTimeline.IsZero())
	assert.Equal(t, Context{Kind: ContextTask, Handle: 1}, s.Stack.Top())
}

func TestTimelineForContextIsStableAndDistinctPerHandle(t *testing.T) {
	s := newTestState(t, nil)

	id1a, isNew1a := s.TimelineForContext(Context{Kind: ContextTask, Handle: 2})
	require.True(t, isNew1a)
	id1b, isNew1b := s.TimelineForContext(Context{Kind: ContextTask, Handle: 2})
	assert.False(t, isNew1b)
	assert.True(t, id1a.Equal(id1b))

	id2, _ := s.TimelineForContext(Context{Kind: ContextTask, Handle: 3})
	assert.False(t, id1a.Equal(id2))
}

func TestTimelineForContextSingleTaskTimelineCollapsesEverything(t *testing.T) {
	s := newTestState(t, func(c *config.PluginConfig) { c.SingleTaskTimeline = true })

	isrID, _ := s.TimelineForContext(Context{Kind: ContextISR, Handle: 42})
	taskID, _ := s.TimelineForContext(Context{Kind: ContextTask, Handle: 7})
	assert.True(t, isrID.Equal(s.StartupTimeline))
	assert.True(t, taskID.Equal(s.StartupTimeline))
}

func TestTimelineForContextFlattenISRUsesBaseTask(t *testing.T) {
	s := newTestState(t, func(c *config.PluginConfig) { c.FlattenISRTimelines = true })
	s.Stack.EnterISR(99)

	isrID, _ := s.TimelineForContext(Context{Kind: ContextISR, Handle: 99})
	baseID, _ := s.TimelineForContext(Context{Kind: ContextTask, Handle: 1})
	assert.True(t, isrID.Equal(baseID))
}

func TestObserveEventCountDetectsDrops(t *testing.T) {
	s := newTestState(t, nil)

	extended, dropped := s.ObserveEventCount(0)
	assert.Equal(t, uint64(0), extended)
	assert.Equal(t, uint64(0), dropped)

	extended, dropped = s.ObserveEventCount(5)
	assert.Equal(t, uint64(5), extended)
	assert.Equal(t, uint64(4), dropped) // expected 1, observed 5: 1,2,3,4 missing
}

func TestObserveTimerTicksFlagsBackwardsTime(t *testing.T) {
	s := newTestState(t, nil)

	_, monotonic := s.ObserveTimerTicks(1000)
	assert.True(t, monotonic)

	_, monotonic = s.ObserveTimerTicks(500)
	assert.False(t, monotonic)
}

func TestSetDeviceTimelineIDRequiresKnownObjectAndSingleAssignment(t *testing.T) {
	s := newTestState(t, func(c *config.PluginConfig) { c.UseTimelineIDChannel = true })

	err := s.SetDeviceTimelineID("no-such-task", timelineidFromString(t, "22222222-2222-2222-2222-222222222222"))
	assert.Error(t, err)

	require.NoError(t, s.Symbols.Bind(5, symboltable.ClassTask, "worker", symboltable.Properties{}))
	err = s.SetDeviceTimelineID("worker", timelineidFromString(t, "22222222-2222-2222-2222-222222222222"))
	assert.NoError(t, err)

	// Second attempt on the same object is refused, original id kept.
	err = s.SetDeviceTimelineID("worker", timelineidFromString(t, "33333333-3333-3333-3333-333333333333"))
	assert.Error(t, err)
}

func TestOrdinalsAreSequentialPerTimeline(t *testing.T) {
	s := newTestState(t, nil)
	a, _ := s.TimelineForContext(Context{Kind: ContextTask, Handle: 2})
	b, _ := s.TimelineForContext(Context{Kind: ContextTask, Handle: 3})

	assert.Equal(t, uint64(1), s.NextOrdinal(a))
	assert.Equal(t, uint64(2), s.NextOrdinal(a))
	assert.Equal(t, uint64(1), s.NextOrdinal(b))

	last, ok := s.LastOrdinal(a)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), last)
}

func TestPendingInteractionSourceIsConsumedOnce(t *testing.T) {
	s := newTestState(t, nil)
	a, _ := s.TimelineForContext(Context{Kind: ContextTask, Handle: 2})
	b, _ := s.TimelineForContext(Context{Kind: ContextTask, Handle: 3})

	s.SetPendingInteractionSource(b, a, 7)
	src, ord, ok := s.TakePendingInteractionSource(b)
	require.True(t, ok)
	assert.True(t, src.Equal(a))
	assert.Equal(t, uint64(7), ord)

	_, _, ok = s.TakePendingInteractionSource(b)
	assert.False(t, ok)
}

func TestIPCSendIsPairedOnceThenDropped(t *testing.T) {
	s := newTestState(t, nil)
	sender, _ := s.TimelineForContext(Context{Kind: ContextTask, Handle: 2})

	s.RecordIPCSend("queue", 99, sender, 3)
	timeline, ord, ok := s.TakeIPCSend("queue", 99)
	require.True(t, ok)
	assert.True(t, timeline.Equal(sender))
	assert.Equal(t, uint64(3), ord)

	_, _, ok = s.TakeIPCSend("queue", 99)
	assert.False(t, ok)
}
