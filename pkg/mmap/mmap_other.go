//go:build !linux && !darwin

package mmap

func mmap(fd int, offset int64, length int, prot int, flags int) ([]byte, error) {
	return nil, ErrUnsupported
}

func munmap(b []byte) error {
	return nil
}

func madvise(b []byte, advice int) error {
	return nil
}

const (
	ProtRead       = 0 //nolint:stylecheck
	MapShared      = 0 //nolint:stylecheck
	MadvSequential = 0 //nolint:stylecheck
	MadvWillneed   = 0 //nolint:stylecheck
)
