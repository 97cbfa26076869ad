package recorder

import (
	"context"
	"errors"
)

// ErrDecoderNotWired is returned by UnwiredParser: decoding
// TraceRecorder's on-wire byte formats (snapshot v6, streaming
// v10/v12-v14) is the external-collaborator seam spec.md §1 and §6
// place out of scope for this repository. cmd/* binaries construct a
// Parser from this seam; a deployment that needs real decoding wires a
// concrete Parser into controlloop.Deps in its place.
var ErrDecoderNotWired = errors.New("recorder: production wire decoder not wired")

// UnwiredParser is the Parser production binaries fall back to when no
// concrete decoder has been supplied. It exists so every cmd/*/main.go
// can construct a complete, compiling Deps value without this
// repository fabricating a byte-level TraceRecorder decoder it was
// never asked to build.
type UnwiredParser struct{}

var _ Parser = UnwiredParser{}

func (UnwiredParser) Header(_ context.Context) (Header, error) {
	return Header{}, ErrDecoderNotWired
}

func (UnwiredParser) Next(_ context.Context) (Event, error) {
	return nil, ErrDecoderNotWired
}
