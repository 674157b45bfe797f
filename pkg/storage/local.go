package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ajitpratap0/tabula/pkg/mmap"
)

type localBackend struct {
	mmapThreshold int64
}

type mappedFile struct {
	*bytes.Reader
	m *mmap.Reader
}

func (f *mappedFile) Close() error {
	return f.m.Close()
}

func (b *localBackend) open(_ context.Context, loc Location) (io.ReadCloser, error) {
	if b.mmapThreshold > 0 {
		if st, err := os.Stat(loc.Key); err == nil && st.Size() >= b.mmapThreshold {
			if m, err := mmap.NewReader(loc.Key); err == nil {
				return &mappedFile{Reader: bytes.NewReader(m.ReadAll()), m: m}, nil
			}
		}
	}
	return os.Open(loc.Key)
}

func (b *localBackend) create(_ context.Context, loc Location, appendMode bool) (io.WriteCloser, error) {
	if dir := filepath.Dir(loc.Key); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.OpenFile(loc.Key, flags, 0o644) //nolint:gosec // G304: path supplied by caller
}

func (b *localBackend) modTime(_ context.Context, loc Location) (time.Time, error) {
	st, err := os.Stat(loc.Key)
	if err != nil {
		return time.Time{}, err
	}
	return st.ModTime(), nil
}
