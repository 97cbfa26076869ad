package interpreter

import "github.com/auxoncorp/modality-trace-recorder-plugin/internal/attr"

// CPUWindow accumulates a single timeline's runtime against a
// configured measurement window, per spec.md §4.6. One instance is kept
// per timeline in interpreter.State; Accumulate is fed every event's
// extended timer-tick value regardless of which context is active,
// with running indicating whether this CPUWindow's timeline was the
// one actually executing during the preceding tick interval.
type CPUWindow struct {
	hasLast  bool
	lastTicks uint64

	hasStart    bool
	windowStart uint64

	runtimeInWindowTicks uint64
	totalRuntimeTicks    uint64
}

// NewCPUWindow returns a CPUWindow with no observations yet.
func NewCPUWindow() *CPUWindow {
	return &CPUWindow{}
}

// Accumulate folds the interval between the previous call's
// extendedTicks and this one into the window, crediting it to this
// timeline's runtime only when running is true. The first call per
// CPUWindow only primes lastTicks/windowStart; it attributes no
// runtime, since there is no preceding interval yet.
func (w *CPUWindow) Accumulate(extendedTicks uint64, running bool) {
	if !w.hasStart {
		w.windowStart = extendedTicks
		w.hasStart = true
	}
	if !w.hasLast {
		w.hasLast = true
		w.lastTicks = extendedTicks
		return
	}
	if extendedTicks > w.lastTicks {
		delta := extendedTicks - w.lastTicks
		if running {
			w.runtimeInWindowTicks += delta
			w.totalRuntimeTicks += delta
		}
	}
	w.lastTicks = extendedTicks
}

// CloseIfElapsed closes the current window and returns its attributes
// once nowExtendedTicks - windowStart reaches windowTicks, resetting
// the in-window accumulator (but not the all-time total) for the next
// window. windowTicks of zero disables windowing entirely (closed is
// always false), matching a configuration that never measures CPU
// utilization.
func (w *CPUWindow) CloseIfElapsed(nowExtendedTicks uint64, windowTicks uint64) (closed bool, attrs map[string]any) {
	if windowTicks == 0 || !w.hasStart {
		return false, nil
	}
	if nowExtendedTicks-w.windowStart < windowTicks {
		return false, nil
	}

	attrs = map[string]any{
		string(attr.EventRuntimeWindowTicks):      windowTicks,
		string(attr.EventRuntimeInWindowTicks):     w.runtimeInWindowTicks,
		string(attr.EventTotalRuntimeTicks):        w.totalRuntimeTicks,
		string(attr.EventCpuUtilization):           float64(w.runtimeInWindowTicks) / float64(windowTicks),
	}

	w.runtimeInWindowTicks = 0
	w.windowStart = nowExtendedTicks
	return true, attrs
}
