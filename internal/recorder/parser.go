package recorder

import (
	"context"
	"io"
)

// ErrEndOfStream is returned by Parser.Next once the underlying
// transport reaches a clean end-of-stream; it is a terminal success,
// not an error, per the control loop's EOF handling.
var ErrEndOfStream = io.EOF

// Parser is the external-collaborator seam: production implementations
// decode TraceRecorder's on-wire byte formats (out of scope for this
// repository); SliceParser below is the in-repository test double the
// control-loop tests are built against (translator tests call
// translator.Translate directly).
type Parser interface {
	// Header blocks until the one-time header has been parsed.
	Header(ctx context.Context) (Header, error)
	// Next returns the next decoded event, or ErrEndOfStream.
	Next(ctx context.Context) (Event, error)
}

// SliceParser replays a canned Header and Event slice, used by tests
// that need a deterministic, I/O-free Parser.
type SliceParser struct {
	Hdr    Header
	Events []Event

	pos int
}

// NewSliceParser returns a Parser that yields hdr then events in order.
func NewSliceParser(hdr Header, events []Event) *SliceParser {
	return &SliceParser{Hdr: hdr, Events: events}
}

func (p *SliceParser) Header(ctx context.Context) (Header, error) {
	if err := ctx.Err(); err != nil {
		return Header{}, err
	}
	return p.Hdr, nil
}

func (p *SliceParser) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.pos >= len(p.Events) {
		return nil, ErrEndOfStream
	}
	ev := p.Events[p.pos]
	p.pos++
	return ev, nil
}
