package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/auxoncorp/modality-trace-recorder-plugin/internal/periodiccaller"
)

// rttChunkQueueSize bounds the channel between the poll loop and
// ReadChunk, matching the teacher's preference for bounded channels
// over unbounded queues.
const rttChunkQueueSize = 64

// RTT attaches a probe, resolves the SEGGER RTT control block, and
// polls its up-channel on a timer into bufferSize-sized reads, handing
// each non-empty read to ReadChunk's caller over a bounded channel.
// Control-plane commands are written to the down-channel.
type RTT struct {
	probe                  probeSession
	upChannel, downChannel uint32
	configControlBlockAddr *uint64
	pollInterval           time.Duration
	bufferSize             uint32
	attachTimeout          time.Duration
	setupOnBreakpoint      string
	restart                bool
	disableControlPlane    bool

	controlBlockAddr uint64
	chunks           chan []byte
	errs             chan error
	stopPoll         func()
}

var _ Transport = (*RTT)(nil)

// NewRTT constructs an RTT transport over an already-attached probe
// session.
func NewRTT(probe probeSession, upChannel, downChannel uint32, controlBlockAddr *uint64,
	pollInterval time.Duration, bufferSize uint32, attachTimeout time.Duration,
	setupOnBreakpoint string, restart, disableControlPlane bool) *RTT {
	return &RTT{
		probe:                  probe,
		upChannel:              upChannel,
		downChannel:            downChannel,
		configControlBlockAddr: controlBlockAddr,
		pollInterval:           pollInterval,
		bufferSize:             bufferSize,
		attachTimeout:          attachTimeout,
		setupOnBreakpoint:      setupOnBreakpoint,
		restart:                restart,
		disableControlPlane:    disableControlPlane,
	}
}

func (t *RTT) Attach(ctx context.Context) error {
	if t.setupOnBreakpoint != "" {
		if err := t.probe.WaitForBreakpoint(ctx, t.setupOnBreakpoint); err != nil {
			return fmt.Errorf("%w: waiting at breakpoint %q: %w", ErrProbeAttachFailed, t.setupOnBreakpoint, err)
		}
	}

	if t.configControlBlockAddr != nil {
		t.controlBlockAddr = *t.configControlBlockAddr
	} else {
		addr, err := t.probe.DiscoverRTTControlBlock(ctx, t.attachTimeout)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRTTNoControlBlock, err)
		}
		t.controlBlockAddr = addr
	}

	if !t.disableControlPlane {
		if t.restart {
			if err := t.WriteControl(ctx, sliceOf(EncodeSetActive(false))); err != nil {
				return err
			}
		}
		if err := t.WriteControl(ctx, sliceOf(EncodeSetActive(true))); err != nil {
			return err
		}
	}

	t.chunks = make(chan []byte, rttChunkQueueSize)
	t.errs = make(chan error, 1)
	pollCtx, cancel := context.WithCancel(ctx)
	t.stopPoll = cancel
	periodiccaller.Start(pollCtx, t.pollInterval, func() { t.poll(pollCtx) })
	return nil
}

func (t *RTT) poll(ctx context.Context) {
	buf := make([]byte, t.bufferSize)
	n, err := t.probe.ReadRTTChannel(ctx, t.controlBlockAddr, t.upChannel, buf)
	if err != nil {
		select {
		case t.errs <- err:
		default:
		}
		return
	}
	if n == 0 {
		return
	}
	select {
	case t.chunks <- buf[:n]:
	case <-ctx.Done():
	}
}

func (t *RTT) ReadChunk(ctx context.Context) ([]byte, error) {
	select {
	case chunk := <-t.chunks:
		return chunk, nil
	case err := <-t.errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *RTT) WriteControl(ctx context.Context, command []byte) error {
	if t.disableControlPlane {
		return nil
	}
	return t.probe.WriteRTTChannel(ctx, t.controlBlockAddr, t.downChannel, command)
}

func (t *RTT) Close() error {
	if t.stopPoll != nil {
		t.stopPoll()
	}
	if !t.disableControlPlane && t.controlBlockAddr != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownControlTimeout)
		_ = t.WriteControl(ctx, sliceOf(EncodeSetActive(false)))
		cancel()
	}
	return t.probe.Close()
}
