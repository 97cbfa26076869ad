package transport

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileReadsToEOF(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "trace-*.bin")
	require.NoError(t, err)
	_, err = f.Write([]byte("hello trace bytes"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tr := NewFile(f.Name())
	ctx := context.Background()
	require.NoError(t, tr.Attach(ctx))
	defer tr.Close()

	var got []byte
	for {
		chunk, err := tr.ReadChunk(ctx)
		got = append(got, chunk...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, "hello trace bytes", string(got))
}

func TestFileWriteControlIsNoop(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "trace-*.bin")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tr := NewFile(f.Name())
	require.NoError(t, tr.Attach(context.Background()))
	defer tr.Close()
	require.NoError(t, tr.WriteControl(context.Background(), []byte{1, 2, 3}))
}
