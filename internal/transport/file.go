package transport

import (
	"context"
	"io"
	"os"
)

// fileChunkSize is the read buffer size for File, chosen to match a
// typical streaming-protocol chunk rather than reading the whole file
// at once.
const fileChunkSize = 64 * 1024

// File reads a trace from disk to EOF. It has no control plane: Attach
// opens the file, WriteControl is a no-op.
type File struct {
	path string
	f    *os.File
}

var _ Transport = (*File)(nil)

// NewFile constructs a File transport reading path, opened lazily by
// Attach.
func NewFile(path string) *File {
	return &File{path: path}
}

func (t *File) Attach(_ context.Context) error {
	f, err := os.Open(t.path)
	if err != nil {
		return err
	}
	t.f = f
	return nil
}

func (t *File) ReadChunk(_ context.Context) ([]byte, error) {
	buf := make([]byte, fileChunkSize)
	n, err := t.f.Read(buf)
	if n == 0 && err == nil {
		err = io.EOF
	}
	return buf[:n], err
}

// WriteControl is a no-op: File has no control plane.
func (t *File) WriteControl(_ context.Context, _ []byte) error {
	return nil
}

func (t *File) Close() error {
	if t.f == nil {
		return nil
	}
	return t.f.Close()
}
