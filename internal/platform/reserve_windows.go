//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Windows pages are always 4KiB; there is no runtime query needed for the
// allocator's purposes, matching the original C++ implementation's
// hard-coded constant for _WIN32.
func pageSize() int {
	return 4096
}

// ReserveExecutableBlock reserves and commits size bytes of anonymous
// memory, initially READWRITE. VirtualAlloc's returned address is always
// allocation-granularity aligned (64KiB), which is itself page-aligned.
func ReserveExecutableBlock(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("platform: VirtualAlloc %d bytes: %w", size, err)
	}
	return unsafeSlice(addr, size), nil
}

// Unreserve releases a block obtained from ReserveExecutableBlock.
func Unreserve(block []byte) error {
	if len(block) == 0 {
		return nil
	}
	if err := windows.VirtualFree(addrOf(block), 0, windows.MEM_RELEASE); err != nil {
		return fmt.Errorf("platform: VirtualFree: %w", err)
	}
	return nil
}

// MakeExecutable transitions mem from READWRITE to EXECUTE_READ.
func MakeExecutable(mem []byte) error {
	var old uint32
	if err := windows.VirtualProtect(addrOf(mem), uintptr(len(mem)), windows.PAGE_EXECUTE_READ, &old); err != nil {
		return fmt.Errorf("platform: VirtualProtect RX: %w", err)
	}
	return nil
}
