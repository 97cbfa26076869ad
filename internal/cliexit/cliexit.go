// Package cliexit selects the process exit code for one of the four
// collector/importer binaries from the error controlloop.Run returns,
// generalizing the teacher's per-binary exitCode enum and
// parseError/failure helpers (main.go) across four near-identical
// binaries rather than duplicating the switch four times.
package cliexit

import (
	"context"
	"errors"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/config"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/sink"
	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/transport"
)

// Code mirrors spec.md §6's exit-code table.
type Code int

const (
	Success    Code = 0
	Failure    Code = 1
	ParseError Code = 2
	Cancelled  Code = 130
)

// ForError classifies err per spec.md §7's error taxonomy: nil is
// Success, context cancellation is Cancelled, config.ErrInvalid is
// ParseError, every transport/sink sentinel (and anything
// unrecognized) is Failure.
func ForError(err error) Code {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Cancelled
	case errors.Is(err, config.ErrInvalid):
		return ParseError
	case errors.Is(err, transport.ErrConnectFailed),
		errors.Is(err, transport.ErrProbeAttachFailed),
		errors.Is(err, transport.ErrRTTNoControlBlock),
		errors.Is(err, transport.ErrProbeNotWired),
		errors.Is(err, sink.ErrRejected),
		errors.Is(err, sink.ErrEncoderNotWired):
		return Failure
	default:
		return Failure
	}
}
