package sink

// DefaultFlushThreshold is the record count at which Client eagerly
// sends a batch rather than waiting for an explicit Flush, matching the
// teacher's queue-based reporters (a bounded ring buffer per data type)
// without needing a background flush goroutine of our own: the control
// loop's read loop calls Apply once per event and naturally drives
// flushing at this cadence.
const DefaultFlushThreshold = 256

// NewClient builds the production Facade: a Buffered façade whose
// records are sent over transport once DefaultFlushThreshold records
// have accumulated, or sooner via an explicit Flush (always called by
// the control loop on shutdown, per spec's control-loop drain-then-stop
// sequence).
func NewClient(transport Transport) *Buffered {
	return NewBuffered(transport, DefaultFlushThreshold)
}
