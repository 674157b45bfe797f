// Package mmap provides memory-mapped whole-file reads for large local data
// files.
package mmap

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrEmpty is returned for zero-length files, which cannot be mapped.
var ErrEmpty = errors.New("file is empty")

// ErrUnsupported is returned on platforms without mmap support.
var ErrUnsupported = errors.New("mmap is not supported on this platform")

// Reader provides memory-mapped file reading
type Reader struct {
	file     *os.File
	data     []byte
	fileSize int64
	pageSize int

	// Stats
	bytesRead int64
	pagesRead int64

	mu sync.RWMutex
}

// NewReader creates a new memory-mapped file reader
func NewReader(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec // G304: path supplied by caller
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fileSize := stat.Size()
	if fileSize == 0 {
		file.Close()
		return nil, ErrEmpty
	}

	data, err := mmap(int(file.Fd()), 0, int(fileSize), ProtRead, MapShared)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	// Advisory only; the mapping is usable either way
	_ = madvise(data, MadvSequential)

	return &Reader{
		file:     file,
		data:     data,
		fileSize: fileSize,
		pageSize: os.Getpagesize(),
	}, nil
}

// Size returns the mapped file size in bytes
func (r *Reader) Size() int64 {
	return r.fileSize
}

// ReadAll returns the entire memory-mapped file data. The slice is only
// valid until Close.
func (r *Reader) ReadAll() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	_ = madvise(r.data, MadvWillneed)
	r.bytesRead = r.fileSize
	r.pagesRead = (r.fileSize + int64(r.pageSize) - 1) / int64(r.pageSize)

	return r.data
}

// ReadRange reads a specific range from the memory-mapped file
func (r *Reader) ReadRange(offset, length int64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if offset < 0 || offset >= r.fileSize {
		return nil, fmt.Errorf("offset %d out of range [0, %d)", offset, r.fileSize)
	}

	end := offset + length
	if end > r.fileSize {
		end = r.fileSize
	}

	r.bytesRead += end - offset
	r.pagesRead += ((end - offset) + int64(r.pageSize) - 1) / int64(r.pageSize)

	return r.data[offset:end], nil
}

// Copy returns a heap copy of the whole file, safe to use after Close.
func (r *Reader) Copy() []byte {
	data := r.ReadAll()
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// Close unmaps the file and closes it
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error

	if r.data != nil {
		err = munmap(r.data)
		r.data = nil
	}

	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}

	return err
}

// Stats returns reading statistics
func (r *Reader) Stats() (bytesRead, pagesRead int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bytesRead, r.pagesRead
}
