// Package transport implements the byte-oriented source/control-plane
// sink abstraction the event source reads from: file, TCP, ITM-over-probe,
// and RTT-over-probe variants sharing one Transport contract.
package transport

import (
	"context"
	"errors"
)

// ErrConnectFailed is returned by TCP's Attach on a dial failure.
var ErrConnectFailed = errors.New("transport: connect failed")

// ErrProbeAttachFailed is returned by ITM/RTT's Attach when the debug
// probe session cannot be established.
var ErrProbeAttachFailed = errors.New("transport: probe attach failed")

// ErrRTTNoControlBlock is returned by RTT's Attach when the control
// block can't be located by symbol, configured address, or memory scan
// within the attach timeout.
var ErrRTTNoControlBlock = errors.New("transport: rtt control block not found")

// Transport is the uniform byte source plus optional control-plane sink
// every collector/importer binary reads from. File uses Attach to open
// its file and TCP to dial its remote; ITM and RTT use it to resolve the
// control-plane address/control-block through the debug probe, per
// spec's "Transport polymorphism" design note.
type Transport interface {
	// Attach performs any one-time setup needed before ReadChunk can be
	// called: opening the file (File), dialing the socket (TCP), or
	// resolving probe addresses and the RTT control block (ITM, RTT).
	Attach(ctx context.Context) error

	// ReadChunk returns the next chunk of bytes, blocking until data is
	// available, the stream ends (io.EOF), or ctx is canceled.
	ReadChunk(ctx context.Context) ([]byte, error)

	// WriteControl sends a control-plane command (see EncodeSetActive)
	// to the target. A no-op returning nil for transports with no
	// control plane (File).
	WriteControl(ctx context.Context, command []byte) error

	// Close releases any resources Attach acquired.
	Close() error
}
