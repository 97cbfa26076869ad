package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	errSymbolNotFound = errors.New("symbol not found")
	errNotImplemented = errors.New("not implemented in fake probe")
)

type fakeProbe struct {
	symbols  map[string]uint64
	writes   map[uint64][]byte
	stimulus [][]byte
	closed   bool
}

func newFakeProbe() *fakeProbe {
	return &fakeProbe{symbols: map[string]uint64{}, writes: map[uint64][]byte{}}
}

func (p *fakeProbe) ReadMemory(_ context.Context, addr uint64, buf []byte) (int, error) {
	data := p.writes[addr]
	n := copy(buf, data)
	return n, nil
}

func (p *fakeProbe) WriteMemory(_ context.Context, addr uint64, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	p.writes[addr] = cp
	return nil
}

func (p *fakeProbe) FindSymbol(name string) (uint64, error) {
	addr, ok := p.symbols[name]
	if !ok {
		return 0, errSymbolNotFound
	}
	return addr, nil
}

func (p *fakeProbe) ReadStimulus(_ context.Context, _ uint8) ([]byte, error) {
	if len(p.stimulus) == 0 {
		return nil, nil
	}
	chunk := p.stimulus[0]
	p.stimulus = p.stimulus[1:]
	return chunk, nil
}

func (p *fakeProbe) DiscoverRTTControlBlock(_ context.Context, _ time.Duration) (uint64, error) {
	return 0, errNotImplemented
}

func (p *fakeProbe) ReadRTTChannel(_ context.Context, _ uint64, _ uint32, buf []byte) (int, error) {
	return 0, nil
}

func (p *fakeProbe) WriteRTTChannel(_ context.Context, _ uint64, _ uint32, _ []byte) error {
	return nil
}

func (p *fakeProbe) WaitForBreakpoint(_ context.Context, _ string) error {
	return nil
}

func (p *fakeProbe) Close() error {
	p.closed = true
	return nil
}

func TestITMAttachResolvesAddressesBySymbolWhenUnconfigured(t *testing.T) {
	probe := newFakeProbe()
	probe.symbols["tz_host_command_data"] = 0x2000_0000
	probe.symbols["tz_host_command_bytes_to_read"] = 0x2000_0010

	tr := NewITM(probe, 1, nil, nil, false, false)
	require.NoError(t, tr.Attach(context.Background()))

	require.Equal(t, sliceOf(EncodeSetActive(true)), probe.writes[0x2000_0000])
	lenBuf := probe.writes[0x2000_0010]
	require.Equal(t, uint32(8), binary.LittleEndian.Uint32(lenBuf))
}

func TestITMAttachUsesConfiguredAddressesOverSymbols(t *testing.T) {
	probe := newFakeProbe()
	dataAddr := uint64(0x1000)
	lenAddr := uint64(0x1008)

	tr := NewITM(probe, 1, &dataAddr, &lenAddr, true, false)
	require.NoError(t, tr.Attach(context.Background()))

	require.Equal(t, sliceOf(EncodeSetActive(true)), probe.writes[0x1000])
}

func TestITMReadChunkDelegatesToStimulus(t *testing.T) {
	probe := newFakeProbe()
	probe.stimulus = [][]byte{[]byte("abc")}
	dataAddr, lenAddr := uint64(0x1000), uint64(0x1008)
	tr := NewITM(probe, 3, &dataAddr, &lenAddr, false, true)
	require.NoError(t, tr.Attach(context.Background()))

	chunk, err := tr.ReadChunk(context.Background())
	require.NoError(t, err)
	require.Equal(t, "abc", string(chunk))
}
