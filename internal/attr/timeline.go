// Package attr names the attribute keys this adapter attaches to
// timelines and events, matching the sink's internal.trace_recorder.*
// and root-level namespaces.
package attr

import "strings"

// TimelineAttrKey is an attribute key scoped to a declared timeline. Its
// string form is the full sink-facing key, e.g.
// "timeline.internal.trace_recorder.protocol"; Facade implementations
// that already scope by timeline should use CfgKey to drop the
// "timeline." prefix before sending it over the wire.
type TimelineAttrKey string

const (
	TimelineName           TimelineAttrKey = "timeline.name"
	TimelineDescription    TimelineAttrKey = "timeline.description"
	TimelineRunID          TimelineAttrKey = "timeline.run_id"
	TimelineTimeDomain     TimelineAttrKey = "timeline.time_domain"
	TimelineTimeResolution TimelineAttrKey = "timeline.time_resolution"
	TimelineClockStyle     TimelineAttrKey = "timeline.clock_style"

	TimelineProtocol             TimelineAttrKey = "timeline.internal.trace_recorder.protocol"
	TimelineKernelVersion        TimelineAttrKey = "timeline.internal.trace_recorder.kernel.version"
	TimelineKernelPort           TimelineAttrKey = "timeline.internal.trace_recorder.kernel.port"
	TimelineEndianness           TimelineAttrKey = "timeline.internal.trace_recorder.endianness"
	TimelineIrqPriorityOrder     TimelineAttrKey = "timeline.internal.trace_recorder.irq_priority_order"
	TimelineFrequency            TimelineAttrKey = "timeline.internal.trace_recorder.frequency"
	TimelineIsrChainingThreshold TimelineAttrKey = "timeline.internal.trace_recorder.isr_tail_chaining_threshold"

	TimelineObjectHandle          TimelineAttrKey = "timeline.internal.trace_recorder.object_handle"
	TimelineFormatVersion         TimelineAttrKey = "timeline.internal.trace_recorder.format_version"
	TimelineNumCores              TimelineAttrKey = "timeline.internal.trace_recorder.cores"
	TimelinePlatformCfg           TimelineAttrKey = "timeline.internal.trace_recorder.platform_cfg"
	TimelinePlatformCfgVersion    TimelineAttrKey = "timeline.internal.trace_recorder.platform_cfg.version"
	TimelinePlatformCfgVerMajor   TimelineAttrKey = "timeline.internal.trace_recorder.platform_cfg.version.major"
	TimelinePlatformCfgVerMinor   TimelineAttrKey = "timeline.internal.trace_recorder.platform_cfg.version.minor"
	TimelinePlatformCfgVerPatch   TimelineAttrKey = "timeline.internal.trace_recorder.platform_cfg.version.patch"
	TimelineHeapSize              TimelineAttrKey = "timeline.internal.trace_recorder.heap.max"
	TimelineTimerType             TimelineAttrKey = "timeline.internal.trace_recorder.timer.type"
	TimelineTimerFreq             TimelineAttrKey = "timeline.internal.trace_recorder.timer.frequency"
	TimelineTimerPeriod           TimelineAttrKey = "timeline.internal.trace_recorder.timer.period"
	TimelineTimerWraps            TimelineAttrKey = "timeline.internal.trace_recorder.timer.wraparounds"
	TimelineTickRateHz            TimelineAttrKey = "timeline.internal.trace_recorder.os_tick.rate_hz"
	TimelineTickCount             TimelineAttrKey = "timeline.internal.trace_recorder.os_tick.count"
	TimelineLatestTimestampTicks  TimelineAttrKey = "timeline.internal.trace_recorder.latest_timestamp.ticks"
	TimelineLatestTimestamp       TimelineAttrKey = "timeline.internal.trace_recorder.latest_timestamp"

	TimelinePluginVersion TimelineAttrKey = "timeline.trace_recorder.plugin.version"
	TimelineImportFile    TimelineAttrKey = "timeline.trace_recorder.import.file"
	TimelineTcpRemote     TimelineAttrKey = "timeline.trace_recorder.tcp_collector.remote"
	TimelineInteractionMode TimelineAttrKey = "timeline.internal.trace_recorder.interaction_mode"

	TimelineCpuUtilizationMeasurementWindowTicks TimelineAttrKey = "timeline.internal.trace_recorder.cpu_utilization.measurement_window.ticks"
	TimelineCpuUtilizationMeasurementWindow      TimelineAttrKey = "timeline.internal.trace_recorder.cpu_utilization.measurement_window"
)

// CustomTimeline builds a user-supplied override/additional timeline
// attribute key, e.g. from `--metadata` config entries not otherwise
// named above.
func CustomTimeline(name string) TimelineAttrKey {
	return TimelineAttrKey("timeline." + name)
}

// CfgKey drops the "timeline." prefix, yielding the key form a Facade
// already scoped to a timeline expects.
func (k TimelineAttrKey) CfgKey() string {
	return strings.TrimPrefix(string(k), "timeline.")
}

func (k TimelineAttrKey) String() string {
	return string(k)
}
