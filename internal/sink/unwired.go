package sink

import (
	"context"
	"errors"
)

// ErrEncoderNotWired is returned by UnwiredTransport: the wire
// encoding of the Modality ingest RPC itself is the external sink
// contract spec.md §1 places out of scope for this repository.
// cmd/* binaries construct a Transport from this seam; a deployment
// that needs a real ingest connection wires a concrete Transport into
// sink.NewClient in its place.
var ErrEncoderNotWired = errors.New("sink: production ingest transport not wired")

// UnwiredTransport is the Transport production binaries fall back to
// when no concrete ingest client has been supplied.
type UnwiredTransport struct{}

var _ Transport = UnwiredTransport{}

func (UnwiredTransport) Send(_ context.Context, _ Batch) error {
	return ErrEncoderNotWired
}
