// Package codegen implements an executable code allocator: it reserves
// virtual memory in large fixed-size blocks, bump-allocates within the
// active block, flips freshly filled pages from writable to executable,
// flushes the instruction cache over the code, and optionally attaches
// per-block unwind metadata so OS stack unwinders can traverse JITed
// frames.
//
// An Allocator is not safe for concurrent use. The write-to-executable
// transition is page-global; two concurrent Allocate calls could race to
// publish overlapping protection flips. Callers that need concurrent
// publication must serialize externally or own one Allocator per thread.
package codegen

import (
	"fmt"
	"unsafe"

	"github.com/axstin/luau/internal/platform"
)

// Allocator is a single-threaded bump allocator over a pool of page-aligned
// virtual memory blocks. It never frees individual allocations; memory is
// reclaimed only when the whole Allocator is closed.
type Allocator struct {
	blockSize    int
	maxTotalSize int
	hook         UnwindHook

	blocks      [][]byte
	unwindInfos []interface{}

	curBlock []byte
	blockPos int
	blockEnd int
}

// NewAllocator constructs an Allocator that reserves memory blockSize bytes
// at a time, never holding more than maxTotalSize bytes of reservations at
// once. hook may be nil to disable unwind-info generation.
//
// blockSize must exceed MaxUnwindDataSize and maxTotalSize must be at least
// blockSize; violating either is a programming error and panics, mirroring
// the assertions in the reference implementation this package is ported
// from.
func NewAllocator(blockSize, maxTotalSize int, hook UnwindHook) *Allocator {
	if blockSize <= MaxUnwindDataSize {
		panic(fmt.Sprintf("codegen: blockSize %d must exceed MaxUnwindDataSize %d", blockSize, MaxUnwindDataSize))
	}
	if maxTotalSize < blockSize {
		panic(fmt.Sprintf("codegen: maxTotalSize %d must be at least blockSize %d", maxTotalSize, blockSize))
	}
	return &Allocator{
		blockSize:    blockSize,
		maxTotalSize: maxTotalSize,
		hook:         hook,
	}
}

// BlockCount reports how many blocks have been reserved so far.
func (a *Allocator) BlockCount() int { return len(a.blocks) }

// TotalReserved reports blocks reserved so far, in bytes.
func (a *Allocator) TotalReserved() int { return len(a.blocks) * a.blockSize }

// Allocate publishes data and code into executable memory and returns:
//
//   - result: a slice covering the allocation, starting at the first byte
//     after any unwind prelude and running for len(data) rounded up to 16
//     bytes, plus len(code) bytes. result[len(result)-len(code):] aliases
//     the published code.
//   - codeAddr: the absolute address of the start of the published code,
//     i.e. &result[len(result)-len(code)] as a uintptr, valid even when
//     code is empty.
//
// On failure it returns a nil result and one of ErrOversizeRequest,
// ErrCapacityExhausted, ErrPlatformReserve, or ErrUnwindHookFailed, and
// leaves the allocator's internal cursor untouched.
func (a *Allocator) Allocate(data, code []byte) (result []byte, codeAddr uintptr, err error) {
	alignedDataSize := int(platform.RoundUp16(uintptr(len(data))))
	totalSize := alignedDataSize + len(code)

	// Capacity guard: this function will never fit in any block, new or old.
	if totalSize > a.blockSize-MaxUnwindDataSize {
		return nil, 0, ErrOversizeRequest
	}

	unwindInfoSize := 0
	if a.curBlock == nil || totalSize > a.blockEnd-a.blockPos {
		unwindInfoSize, err = a.allocateNewBlock()
		if err != nil {
			return nil, 0, err
		}
		if totalSize > a.blockEnd-a.blockPos {
			panic("codegen: new block does not have room for request that passed the capacity guard")
		}
	}

	if (a.blockPos % platform.PageSize) != 0 {
		panic("codegen: allocation cursor is not page-aligned")
	}

	dataOffset := unwindInfoSize + alignedDataSize - len(data)
	codeOffset := unwindInfoSize + alignedDataSize

	if len(data) > 0 {
		copy(a.curBlock[a.blockPos+dataOffset:], data)
	}
	if len(code) > 0 {
		copy(a.curBlock[a.blockPos+codeOffset:], code)
	}

	pageBytes := int(platform.RoundUpToPage(uintptr(unwindInfoSize + totalSize)))

	rxRange := a.curBlock[a.blockPos : a.blockPos+pageBytes]
	if err := platform.MakeExecutable(rxRange); err != nil {
		// The allocator cannot recover from a page that is neither fully
		// writable nor fully executable; treat this as fatal.
		panic(err)
	}

	codeRange := a.curBlock[a.blockPos+codeOffset : a.blockPos+codeOffset+len(code)]
	platform.FlushInstructionCache(codeRange)

	blockBasePtr := unsafe.Pointer(&a.curBlock[0])
	codeAddrAbs := uintptr(unsafe.Add(blockBasePtr, a.blockPos+codeOffset))
	result = unsafe.Slice((*byte)(unsafe.Add(blockBasePtr, a.blockPos+unwindInfoSize)), totalSize)

	a.blockPos += pageBytes
	if (a.blockPos % platform.PageSize) != 0 {
		panic("codegen: allocation cursor ended misaligned")
	}

	return result, codeAddrAbs, nil
}

// allocateNewBlock reserves a fresh block, makes it current, and — if an
// unwind hook is configured — invokes it. If the hook rejects the block,
// the block is removed from blocks and unreserved, and the previous
// curBlock/blockPos/blockEnd are restored, so the failing Allocate call
// leaves the cursor untouched.
func (a *Allocator) allocateNewBlock() (unwindInfoSize int, err error) {
	if (len(a.blocks)+1)*a.blockSize > a.maxTotalSize {
		return 0, ErrCapacityExhausted
	}

	block, rerr := platform.ReserveExecutableBlock(a.blockSize)
	if rerr != nil {
		return 0, fmt.Errorf("%w: %v", ErrPlatformReserve, rerr)
	}

	prevBlock, prevPos, prevEnd := a.curBlock, a.blockPos, a.blockEnd
	a.curBlock = block
	a.blockPos = 0
	a.blockEnd = a.blockSize
	a.blocks = append(a.blocks, block)

	if a.hook != nil {
		handle, sizeWritten, ok := a.hook.Create(block)
		if !ok {
			a.blocks = a.blocks[:len(a.blocks)-1]
			a.curBlock, a.blockPos, a.blockEnd = prevBlock, prevPos, prevEnd
			_ = platform.Unreserve(block)
			return 0, ErrUnwindHookFailed
		}
		unwindInfoSize = int(platform.RoundUp16(uintptr(sizeWritten)))
		if unwindInfoSize > MaxUnwindDataSize {
			panic(fmt.Sprintf("codegen: unwind hook wrote %d bytes, exceeding MaxUnwindDataSize %d", sizeWritten, MaxUnwindDataSize))
		}
		a.unwindInfos = append(a.unwindInfos, handle)
	}

	return unwindInfoSize, nil
}

// Close releases every unwind handle, in the order they were created, then
// unreserves every block. This ordering matters on platforms where the OS
// looks up unwind tables by block address: deregistration must precede
// address reuse. Close must be called at most once.
func (a *Allocator) Close() error {
	if a.hook != nil {
		for _, handle := range a.unwindInfos {
			a.hook.Destroy(handle)
		}
	}
	var firstErr error
	for _, block := range a.blocks {
		if err := platform.Unreserve(block); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.blocks = nil
	a.unwindInfos = nil
	a.curBlock = nil
	return firstErr
}
