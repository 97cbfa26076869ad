// Package ticktime converts extended timer ticks to nanoseconds without
// floating point, using a 128-bit intermediate product so the
// multiplication cannot overflow before the division.
package ticktime

import "math/bits"

// ToNanos converts ticks at the given frequency (Hz) to nanoseconds,
// computing ticks*1e9/frequencyHz with a 128-bit intermediate. Returns
// 0 if frequencyHz is 0 (frequency unknown; callers should omit the
// timestamp attribute in that case rather than trust this result).
func ToNanos(ticks uint64, frequencyHz uint64) uint64 {
	if frequencyHz == 0 {
		return 0
	}
	hi, lo := bits.Mul64(ticks, 1_000_000_000)
	if hi >= frequencyHz {
		// Quotient would overflow 64 bits; this run has been active for
		// an implausible span at this frequency, saturate rather than panic.
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, frequencyHz)
	return q
}
