//go:build windows

package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procFlushInstructionCache = kernel32.NewProc("FlushInstructionCache")
)

// FlushInstructionCache delegates to the Win32 API, which knows how to
// serialize the instruction fetcher on every architecture Windows runs on.
func FlushInstructionCache(code []byte) {
	if len(code) == 0 {
		return
	}
	r, _, err := procFlushInstructionCache.Call(
		uintptr(windows.CurrentProcess()),
		uintptr(unsafe.Pointer(&code[0])),
		uintptr(len(code)),
	)
	if r == 0 {
		panic(err)
	}
}
