// Package compression provides transparent compression for data and
// structure files, selected from the file name suffix.
//
// # Overview
//
// The compression package provides:
//   - Multiple compression algorithms (Gzip, Zstd, LZ4, Snappy, S2, Deflate)
//   - Configurable compression levels (Fastest, Default, Better, Best)
//   - Streaming readers and writers used by the storage layer
//   - In-memory helpers built on the streams
//
// # Basic Usage
//
//	algo, base := compression.Detect("rates.dat.zst") // Zstd, "rates.dat"
//	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo})
//	w, err := comp.NewWriter(file)
//	defer w.Close()
//
// # Suffixes
//
// .gz Gzip, .zst Zstd, .lz4 LZ4, .sz Snappy (framed), .s2 S2, .deflate Deflate.
package compression

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

var suffixes = map[string]Algorithm{
	".gz":      Gzip,
	".zst":     Zstd,
	".lz4":     LZ4,
	".sz":      Snappy,
	".s2":      S2,
	".deflate": Deflate,
}

// Detect returns the algorithm implied by the suffix of name and the name
// with that suffix removed. Unknown suffixes yield None and name unchanged.
func Detect(name string) (Algorithm, string) {
	ext := strings.ToLower(path.Ext(name))
	if algo, ok := suffixes[ext]; ok {
		return algo, name[:len(name)-len(ext)]
	}
	return None, name
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// ParseLevel maps the configuration names fastest, default, better and best.
// The empty string is Default.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return Default, nil
	case "fastest":
		return Fastest, nil
	case "better":
		return Better, nil
	case "best":
		return Best, nil
	default:
		return 0, fmt.Errorf("unknown compression level: %s", s)
	}
}

// Compressor provides compression and decompression functionality.
// All implementations are safe for concurrent use.
type Compressor interface {
	// NewWriter returns a writer compressing into dst. Close flushes the
	// trailer but does not close dst.
	NewWriter(dst io.Writer) (io.WriteCloser, error)

	// NewReader returns a reader decompressing from src.
	NewReader(src io.Reader) (io.ReadCloser, error)

	// Compress compresses data and returns the compressed bytes.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Level returns the compression level configured.
	Level() Level
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// DefaultConfig returns the default configuration: no compression.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: None,
		Level:     Default,
	}
}

// NewCompressor creates a new compressor based on the provided configuration.
// If config is nil, default configuration is used.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	level := config.Level
	if level == 0 {
		level = Default
	}

	base := baseCompressor{algorithm: config.Algorithm, level: level}
	switch config.Algorithm {
	case None, "":
		base.algorithm = None
		return &noneCompressor{base}, nil
	case Gzip:
		return &gzipCompressor{base}, nil
	case Snappy:
		return &snappyCompressor{base}, nil
	case LZ4:
		return &lz4Compressor{base}, nil
	case Zstd:
		return &zstdCompressor{base}, nil
	case S2:
		return &s2Compressor{base}, nil
	case Deflate:
		return &deflateCompressor{base}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
}

// Base compressor implementation
type baseCompressor struct {
	algorithm Algorithm
	level     Level
}

// Algorithm returns the compression algorithm
func (bc baseCompressor) Algorithm() Algorithm {
	return bc.algorithm
}

// Level returns the compression level
func (bc baseCompressor) Level() Level {
	return bc.level
}

func compressWith(c Compressor, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressWith(c Compressor, data []byte) ([]byte, error) {
	r, err := c.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// None compressor (no compression)
type noneCompressor struct {
	baseCompressor
}

func (nc *noneCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{dst}, nil
}

func (nc *noneCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(src), nil
}

func (nc *noneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (nc *noneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

// Gzip compressor
type gzipCompressor struct {
	baseCompressor
}

func (gc *gzipCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(dst, mapGzipLevel(gc.level))
}

func (gc *gzipCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	return compressWith(gc, data)
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(gc, data)
}

// Snappy compressor, framed format
type snappyCompressor struct {
	baseCompressor
}

func (sc *snappyCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(dst), nil
}

func (sc *snappyCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(snappy.NewReader(src)), nil
}

func (sc *snappyCompressor) Compress(data []byte) ([]byte, error) {
	return compressWith(sc, data)
}

func (sc *snappyCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(sc, data)
}

// LZ4 compressor, frame format
type lz4Compressor struct {
	baseCompressor
}

func (lc *lz4Compressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	w := lz4.NewWriter(dst)
	if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(lc.level))); err != nil {
		return nil, fmt.Errorf("failed to configure lz4 writer: %w", err)
	}
	return w, nil
}

func (lc *lz4Compressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(src)), nil
}

func (lc *lz4Compressor) Compress(data []byte) ([]byte, error) {
	return compressWith(lc, data)
}

func (lc *lz4Compressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(lc, data)
}

// Zstd compressor
type zstdCompressor struct {
	baseCompressor
}

func (zc *zstdCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(zc.level)))
}

func (zc *zstdCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	return compressWith(zc, data)
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(zc, data)
}

// S2 compressor
type s2Compressor struct {
	baseCompressor
}

func (sc *s2Compressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	var opts []s2.WriterOption
	switch sc.level {
	case Better:
		opts = append(opts, s2.WriterBetterCompression())
	case Best:
		opts = append(opts, s2.WriterBestCompression())
	}
	return s2.NewWriter(dst, opts...), nil
}

func (sc *s2Compressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(src)), nil
}

func (sc *s2Compressor) Compress(data []byte) ([]byte, error) {
	return compressWith(sc, data)
}

func (sc *s2Compressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(sc, data)
}

// Deflate compressor
type deflateCompressor struct {
	baseCompressor
}

func (dc *deflateCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(dst, mapGzipLevel(dc.level))
}

func (dc *deflateCompressor) NewReader(src io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(src), nil
}

func (dc *deflateCompressor) Compress(data []byte) ([]byte, error) {
	return compressWith(dc, data)
}

func (dc *deflateCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(dc, data)
}

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Better:
		return 7
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Better:
		return lz4.Level6
	case Best:
		return lz4.Level9
	default:
		return lz4.Level3
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
