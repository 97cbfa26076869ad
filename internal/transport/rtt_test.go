package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rttFakeProbe struct {
	*fakeProbe
	controlBlockAddr uint64
	upData           [][]byte
	downWrites       [][]byte
}

func newRTTFakeProbe() *rttFakeProbe {
	return &rttFakeProbe{fakeProbe: newFakeProbe(), controlBlockAddr: 0x3000}
}

func (p *rttFakeProbe) DiscoverRTTControlBlock(_ context.Context, _ time.Duration) (uint64, error) {
	return p.controlBlockAddr, nil
}

func (p *rttFakeProbe) ReadRTTChannel(_ context.Context, addr uint64, _ uint32, buf []byte) (int, error) {
	if addr != p.controlBlockAddr || len(p.upData) == 0 {
		return 0, nil
	}
	chunk := p.upData[0]
	p.upData = p.upData[1:]
	return copy(buf, chunk), nil
}

func (p *rttFakeProbe) WriteRTTChannel(_ context.Context, _ uint64, _ uint32, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	p.downWrites = append(p.downWrites, cp)
	return nil
}

func TestRTTDiscoversControlBlockAndPollsUpChannel(t *testing.T) {
	probe := newRTTFakeProbe()
	probe.upData = [][]byte{[]byte("event-bytes")}

	tr := NewRTT(probe, 0, 0, nil, 5*time.Millisecond, 1024, time.Second, "", false, false)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Attach(ctx))
	defer tr.Close()

	chunk, err := tr.ReadChunk(ctx)
	require.NoError(t, err)
	require.Equal(t, "event-bytes", string(chunk))

	require.Len(t, probe.downWrites, 1)
	require.Equal(t, sliceOf(EncodeSetActive(true)), probe.downWrites[0])
}

func TestRTTUsesConfiguredControlBlockAddrOverDiscovery(t *testing.T) {
	probe := newRTTFakeProbe()
	configured := uint64(0x9999)

	tr := NewRTT(probe, 0, 0, &configured, 5*time.Millisecond, 64, time.Second, "", false, true)
	require.NoError(t, tr.Attach(context.Background()))
	defer tr.Close()
	require.Equal(t, configured, tr.controlBlockAddr)
}
