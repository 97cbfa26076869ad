package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// shutdownControlTimeout bounds how long Close waits to send the
// best-effort STOP command before giving up, per spec's cancellation
// semantics ("STOP to be sent to the target best-effort with a short
// bounded timeout").
const shutdownControlTimeout = 2 * time.Second

// TCP streams a trace over a socket connection, with CMD_SET_ACTIVE as
// its control plane: (1) on connect (preceded by (0) if restart), (0)
// best-effort on Close.
type TCP struct {
	remote              string
	connectTimeout      time.Duration
	restart             bool
	disableControlPlane bool

	conn net.Conn
}

var _ Transport = (*TCP)(nil)

// NewTCP constructs a TCP transport dialing remote, opened by Attach.
func NewTCP(remote string, connectTimeout time.Duration, restart, disableControlPlane bool) *TCP {
	return &TCP{remote: remote, connectTimeout: connectTimeout, restart: restart, disableControlPlane: disableControlPlane}
}

func (t *TCP) Attach(ctx context.Context) error {
	conn, err := net.DialTimeout("tcp", t.remote, t.connectTimeout)
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %w", ErrConnectFailed, t.remote, err)
	}
	t.conn = conn

	if t.disableControlPlane {
		return nil
	}
	if t.restart {
		if err := t.WriteControl(ctx, sliceOf(EncodeSetActive(false))); err != nil {
			return err
		}
	}
	return t.WriteControl(ctx, sliceOf(EncodeSetActive(true)))
}

func (t *TCP) ReadChunk(_ context.Context) ([]byte, error) {
	buf := make([]byte, fileChunkSize)
	n, err := t.conn.Read(buf)
	if n == 0 && err == nil {
		err = io.EOF
	}
	return buf[:n], err
}

func (t *TCP) WriteControl(ctx context.Context, command []byte) error {
	if t.disableControlPlane {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
		defer t.conn.SetWriteDeadline(time.Time{})
	}
	_, err := t.conn.Write(command)
	return err
}

// Close sends STOP best-effort within shutdownControlTimeout, then
// closes the connection. A write error here is swallowed: per spec,
// STOP on shutdown is best-effort, not a fatal condition.
func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	if !t.disableControlPlane {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownControlTimeout)
		_ = t.WriteControl(ctx, sliceOf(EncodeSetActive(false)))
		cancel()
	}
	return t.conn.Close()
}

func sliceOf(b [8]byte) []byte {
	return b[:]
}
