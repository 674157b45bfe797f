package storage

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/errors"
)

// backend serves raw bytes for one scheme.
type backend interface {
	open(ctx context.Context, loc Location) (io.ReadCloser, error)
	create(ctx context.Context, loc Location, appendMode bool) (io.WriteCloser, error)
	modTime(ctx context.Context, loc Location) (time.Time, error)
}

// Options configures a Store.
type Options struct {
	// Region for S3; empty uses the SDK default chain
	Region string
	// Endpoint overrides the S3 endpoint and switches to path style
	Endpoint string
	// CredentialsFile is a GCS service account key file
	CredentialsFile string
	// CompressionLevel applies to compressed outputs
	CompressionLevel compression.Level
	// MmapThreshold is the local file size from which reads are memory mapped;
	// zero disables mmap
	MmapThreshold int64
}

// Store opens and creates files across backends. Remote clients are created
// lazily on first use. A Store is safe for concurrent use.
type Store struct {
	opts  Options
	local *localBackend

	mu  sync.Mutex
	s3  *s3Backend
	gcs *gcsBackend
}

// New creates a Store.
func New(opts Options) *Store {
	return &Store{
		opts:  opts,
		local: &localBackend{mmapThreshold: opts.MmapThreshold},
	}
}

var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// Default returns a process-wide Store with default options.
func Default() *Store {
	defaultStoreOnce.Do(func() {
		defaultStore = New(Options{CompressionLevel: compression.Default, MmapThreshold: 4 * 1024 * 1024})
	})
	return defaultStore
}

func (s *Store) backendFor(ctx context.Context, loc Location) (backend, error) {
	switch loc.Scheme {
	case Local:
		return s.local, nil
	case S3:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.s3 == nil {
			b, err := newS3Backend(ctx, s.opts)
			if err != nil {
				return nil, err
			}
			s.s3 = b
		}
		return s.s3, nil
	case GCS:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gcs == nil {
			b, err := newGCSBackend(ctx, s.opts)
			if err != nil {
				return nil, err
			}
			s.gcs = b
		}
		return s.gcs, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeCapability, "unsupported scheme %q", loc.Scheme)
	}
}

// ReadFile returns the decompressed content at path.
func (s *Store) ReadFile(ctx context.Context, path string) ([]byte, error) {
	loc, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}
	b, err := s.backendFor(ctx, loc)
	if err != nil {
		return nil, err
	}

	raw, err := b.open(ctx, loc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").WithDetail("path", path)
	}
	defer raw.Close()

	algo, _ := compression.Detect(loc.Key)
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create decompressor")
	}
	r, err := comp.NewReader(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decompress file").WithDetail("path", path)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read file").WithDetail("path", path)
	}
	return data, nil
}

// ReadLines returns the lines at path without their line terminators. A
// trailing newline does not produce an empty final line.
func (s *Store) ReadLines(ctx context.Context, path string) ([]string, error) {
	data, err := s.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return SplitLines(data), nil
}

// SplitLines splits data on \n, dropping \r before it.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := make([]string, 0, bytes.Count(data, []byte{'\n'})+1)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	return lines
}

// Create opens path for writing. When appendMode is set the destination must
// be an uncompressed local file.
func (s *Store) Create(ctx context.Context, path string, appendMode bool) (io.WriteCloser, error) {
	loc, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}
	algo, _ := compression.Detect(loc.Key)
	if appendMode && (loc.Remote() || algo != compression.None) {
		return nil, errors.New(errors.ErrorTypeCapability, "append is only supported for uncompressed local files").
			WithDetail("path", path)
	}

	b, err := s.backendFor(ctx, loc)
	if err != nil {
		return nil, err
	}
	raw, err := b.create(ctx, loc, appendMode)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create file").WithDetail("path", path)
	}
	if algo == compression.None {
		return raw, nil
	}

	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo, Level: s.opts.CompressionLevel})
	if err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create compressor")
	}
	cw, err := comp.NewWriter(raw)
	if err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to start compressed stream")
	}
	return &layeredWriter{WriteCloser: cw, under: raw}, nil
}

// ModTime returns the last modification time at path.
func (s *Store) ModTime(ctx context.Context, path string) (time.Time, error) {
	loc, err := ParseLocation(path)
	if err != nil {
		return time.Time{}, err
	}
	b, err := s.backendFor(ctx, loc)
	if err != nil {
		return time.Time{}, err
	}
	t, err := b.modTime(ctx, loc)
	if err != nil {
		return time.Time{}, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat file").WithDetail("path", path)
	}
	return t, nil
}

// layeredWriter closes the compressor before the destination.
type layeredWriter struct {
	io.WriteCloser
	under io.WriteCloser
}

func (w *layeredWriter) Close() error {
	err := w.WriteCloser.Close()
	if cerr := w.under.Close(); err == nil {
		err = cerr
	}
	return err
}
