//go:build windows

package codegen

import (
	"encoding/binary"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// sehUnwindHook is the default UnwindHook on amd64 Windows: it writes a
// minimal UNWIND_INFO describing a frameless function into each block's
// prelude (at offset 12; the first 12 bytes are reserved but not written),
// and registers a RUNTIME_FUNCTION entry, held in Go memory rather than in
// the block, with the OS via
// RtlAddFunctionTable so SEH can walk through JITed frames instead of
// aborting the unwind. It deliberately does not model prologue pushes —
// callers whose generated code establishes a frame should supply their own
// UnwindHook that encodes real unwind codes.
type sehUnwindHook struct {
	mu      sync.Mutex
	entries map[uintptr]*runtimeFunction
}

// NewSEHUnwindHook returns an UnwindHook that registers a dynamic function
// table entry for every block via RtlAddFunctionTable/RtlDeleteFunctionTable.
func NewSEHUnwindHook() UnwindHook {
	return &sehUnwindHook{entries: make(map[uintptr]*runtimeFunction)}
}

// runtimeFunction mirrors the Win64 RUNTIME_FUNCTION layout
// closely enough to satisfy RtlAddFunctionTable for a frameless leaf
// function spanning the whole block.
type runtimeFunction struct {
	beginAddress uint32
	endAddress   uint32
	unwindInfoOf uint32
}

const sehPreludeSize = 16 // RUNTIME_FUNCTION (12 bytes) + UNWIND_INFO (4 bytes), rounded to 16

func (h *sehUnwindHook) Create(block []byte) (handle interface{}, sizeWritten int, ok bool) {
	if len(block) < sehPreludeSize {
		return nil, 0, false
	}
	base := uintptr(unsafe.Pointer(&block[0]))

	// UNWIND_INFO at offset 12: version/flags byte, size-of-prolog byte,
	// count-of-codes byte, frame-register byte. All zero encodes "no
	// unwind codes, no frame register" — correct for a leaf function that
	// never pushes anything before entering its body.
	binary.LittleEndian.PutUint32(block[12:16], 0)

	rf := &runtimeFunction{
		beginAddress: 0,
		endAddress:   uint32(len(block)),
		unwindInfoOf: 12,
	}

	h.mu.Lock()
	h.entries[base] = rf
	h.mu.Unlock()

	ok = addFunctionTable(base, rf, block)
	if !ok {
		h.mu.Lock()
		delete(h.entries, base)
		h.mu.Unlock()
		return nil, 0, false
	}
	return base, sehPreludeSize, true
}

func (h *sehUnwindHook) Destroy(handle interface{}) {
	base := handle.(uintptr)
	h.mu.Lock()
	rf := h.entries[base]
	delete(h.entries, base)
	h.mu.Unlock()
	if rf != nil {
		deleteFunctionTable(rf)
	}
}

var (
	ntdll                      = windows.NewLazySystemDLL("ntdll.dll")
	procRtlAddFunctionTable    = ntdll.NewProc("RtlAddFunctionTable")
	procRtlDeleteFunctionTable = ntdll.NewProc("RtlDeleteFunctionTable")
)

func addFunctionTable(base uintptr, rf *runtimeFunction, block []byte) bool {
	r, _, _ := procRtlAddFunctionTable.Call(
		uintptr(unsafe.Pointer(rf)),
		1,
		base,
	)
	return r != 0
}

func deleteFunctionTable(rf *runtimeFunction) {
	_, _, _ = procRtlDeleteFunctionTable.Call(uintptr(unsafe.Pointer(rf)))
}
