package transport

import (
	"context"
	"encoding/binary"
	"fmt"
)

// ITM reads trace bytes off an ITM stimulus port and writes control-plane
// commands to a target address pair resolved from configuration or from
// the tz_host_command_data/tz_host_command_bytes_to_read ELF symbols.
type ITM struct {
	probe               probeSession
	stimulusPort        uint8
	configCommandData   *uint64
	configCommandLen    *uint64
	restart             bool
	disableControlPlane bool

	commandDataAddr uint64
	commandLenAddr  uint64
}

var _ Transport = (*ITM)(nil)

// NewITM constructs an ITM transport over an already-dialed probe
// session. commandDataAddr/commandLenAddr override ELF symbol
// resolution when non-nil.
func NewITM(probe probeSession, stimulusPort uint8, commandDataAddr, commandLenAddr *uint64, restart, disableControlPlane bool) *ITM {
	return &ITM{
		probe:               probe,
		stimulusPort:        stimulusPort,
		configCommandData:   commandDataAddr,
		configCommandLen:    commandLenAddr,
		restart:             restart,
		disableControlPlane: disableControlPlane,
	}
}

func (t *ITM) Attach(ctx context.Context) error {
	if !t.disableControlPlane {
		addr, err := resolveAddr(t.probe, t.configCommandData, "tz_host_command_data")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProbeAttachFailed, err)
		}
		t.commandDataAddr = addr

		addr, err = resolveAddr(t.probe, t.configCommandLen, "tz_host_command_bytes_to_read")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProbeAttachFailed, err)
		}
		t.commandLenAddr = addr

		if t.restart {
			if err := t.WriteControl(ctx, sliceOf(EncodeSetActive(false))); err != nil {
				return err
			}
		}
		if err := t.WriteControl(ctx, sliceOf(EncodeSetActive(true))); err != nil {
			return err
		}
	}
	return nil
}

func (t *ITM) ReadChunk(ctx context.Context) ([]byte, error) {
	return t.probe.ReadStimulus(ctx, t.stimulusPort)
}

// WriteControl writes command to commandDataAddr, then its length to
// commandLenAddr — the target firmware polls the length register to
// notice a new command has been written.
func (t *ITM) WriteControl(ctx context.Context, command []byte) error {
	if t.disableControlPlane {
		return nil
	}
	if err := t.probe.WriteMemory(ctx, t.commandDataAddr, command); err != nil {
		return err
	}
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(command)))
	return t.probe.WriteMemory(ctx, t.commandLenAddr, lenBuf)
}

func (t *ITM) Close() error {
	return t.probe.Close()
}

func resolveAddr(probe probeSession, configured *uint64, symbol string) (uint64, error) {
	if configured != nil {
		return *configured, nil
	}
	return probe.FindSymbol(symbol)
}
