// Package recorder defines the contract between the external,
// out-of-scope TraceRecorder byte-level parser and this adapter: a
// one-time Header plus a lazy sequence of typed Events.
package recorder

// Protocol identifies the TraceRecorder wire-format family.
type Protocol string

const (
	ProtocolStreaming Protocol = "streaming"
	ProtocolSnapshot  Protocol = "snapshot"
)

// Header is the one-time bundle the parser yields before any events,
// carrying everything the translator needs to declare the startup
// timeline's internal attributes.
type Header struct {
	KernelPort    string
	KernelVersion string
	Protocol      Protocol
	FormatVersion uint32
	// FrequencyHz is 0 when the stream does not report a timer
	// frequency; callers must omit timestamp-nanosecond attributes in
	// that case rather than divide by zero.
	FrequencyHz uint64
	NumCores    uint32
	HeapSize    uint32
	Endianness  string
	// CPUUtilizationMeasurementWindowTicks is derived from the
	// configured measurement window multiplied by FrequencyHz, not
	// read from the stream itself.
	CPUUtilizationMeasurementWindowTicks uint64
}
