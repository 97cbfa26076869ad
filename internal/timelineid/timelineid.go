// Package timelineid implements the 128-bit timeline identifier used to
// address timelines in the sink. Adapted from the profiler's Hash128 file
// identifier (which served the same "stable 128-bit id, UUID-compatible
// wire form" role for executables) to instead derive from a run id and an
// object handle, or from a device-supplied UUID on the modality_timeline_id
// channel.
package timelineid

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID is a 128-bit timeline identifier, represented as two uint64 words so it
// can be derived from a run id with plain XOR folding without allocating.
type ID struct {
	hi uint64
	lo uint64
}

// FromUUID adopts a UUID verbatim as a timeline id, used when a device emits
// an explicit id on the modality_timeline_id user-event channel.
func FromUUID(u uuid.UUID) ID {
	return ID{
		hi: binary.BigEndian.Uint64(u[0:8]),
		lo: binary.BigEndian.Uint64(u[8:16]),
	}
}

// Derive computes the timeline id for an object handle within a run, as
// run-id ⊕ object-handle (the handle is folded into the low 16 bits of the
// low word). Two different handles in the same run always yield different
// ids; the same handle across two runs (different run ids) also differs.
func Derive(runID uuid.UUID, objectHandle uint16) ID {
	id := FromUUID(runID)
	id.lo ^= uint64(objectHandle)
	return id
}

// Bytes returns the big-endian 16-byte representation of id.
func (id ID) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], id.hi)
	binary.BigEndian.PutUint64(b[8:16], id.lo)
	return b
}

// UUID renders id as a standard UUID string, the wire form the sink expects.
func (id ID) UUID() uuid.UUID {
	b := id.Bytes()
	u, _ := uuid.FromBytes(b[:])
	return u
}

func (id ID) String() string {
	return id.UUID().String()
}

// Equal reports whether id and other address the same timeline.
func (id ID) Equal(other ID) bool {
	return id.hi == other.hi && id.lo == other.lo
}

// IsZero reports whether id is the zero value (never a valid timeline id).
func (id ID) IsZero() bool {
	return id.hi == 0 && id.lo == 0
}

// ParseHex parses the "%032x"-style hex form back into an ID, used by tests
// that assert on literal ids.
func ParseHex(s string) (ID, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 32 {
		return ID{}, fmt.Errorf("timelineid: invalid length for %q: %d", s, len(s))
	}
	hi, err := strconv.ParseUint(s[0:16], 16, 64)
	if err != nil {
		return ID{}, err
	}
	lo, err := strconv.ParseUint(s[16:32], 16, 64)
	if err != nil {
		return ID{}, err
	}
	return ID{hi: hi, lo: lo}, nil
}
