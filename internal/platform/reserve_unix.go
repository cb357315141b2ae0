//go:build unix

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func pageSize() int {
	return unix.Getpagesize()
}

// ReserveExecutableBlock reserves and commits size bytes of anonymous,
// process-private memory, initially READ|WRITE. size must already be a
// multiple of PageSize.
func ReserveExecutableBlock(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("platform: mmap %d bytes: %w", size, err)
	}
	return b, nil
}

// Unreserve releases a block obtained from ReserveExecutableBlock. It must
// be called at most once per block.
func Unreserve(block []byte) error {
	if err := unix.Munmap(block); err != nil {
		return fmt.Errorf("platform: munmap: %w", err)
	}
	return nil
}

// MakeExecutable transitions mem, a page-aligned and page-sized sub-range
// of a reserved block, from READ|WRITE to READ|EXECUTE. Failure here is an
// unrecoverable W^X invariant violation; callers must treat it as fatal.
func MakeExecutable(mem []byte) error {
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("platform: mprotect RX: %w", err)
	}
	return nil
}
