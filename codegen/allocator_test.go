package codegen

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axstin/luau/internal/platform"
)

func requireSupportedOSArch(t *testing.T) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skip("executable memory allocation requires amd64 or arm64")
	}
}

func newTestAllocator(t *testing.T, blockSize, maxTotalSize int) *Allocator {
	t.Helper()
	a := NewAllocator(blockSize, maxTotalSize, nil)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a
}

func TestAllocate_CodeOnly(t *testing.T) {
	requireSupportedOSArch(t)
	a := newTestAllocator(t, 4*platform.PageSize, 16*platform.PageSize)

	code := make([]byte, 17)
	for i := range code {
		code[i] = 0x90
	}

	result, codeAddr, err := a.Allocate(nil, code)
	require.NoError(t, err)
	assert.Equal(t, 17, len(result))
	assert.Zero(t, codeAddr%16, "codeAddr must be 16-byte aligned")
	assert.Equal(t, code, result)
	assert.Equal(t, 1, a.BlockCount())
}

func TestAllocate_DataAndCodeShareBlock(t *testing.T) {
	requireSupportedOSArch(t)
	a := newTestAllocator(t, 4*platform.PageSize, 16*platform.PageSize)

	_, _, err := a.Allocate(nil, []byte{0x90})
	require.NoError(t, err)

	data := []byte{0xAA, 0xAA, 0xAA}
	code := []byte{0xC3}
	result, codeAddr, err := a.Allocate(data, code)
	require.NoError(t, err)
	require.Equal(t, 1, a.BlockCount(), "second allocation should reuse the first block")

	// 3 data bytes are left-padded to a 16-byte aligned region; they sit at
	// offset 16-3=13 within that region, and code starts right after it.
	require.Len(t, result, 16+len(code))
	assert.Equal(t, data, result[13:16])
	assert.Zero(t, codeAddr%16)
}

func TestAllocate_OversizeRequestFails(t *testing.T) {
	requireSupportedOSArch(t)
	blockSize := 4 * platform.PageSize
	a := newTestAllocator(t, blockSize, 16*platform.PageSize)

	code := make([]byte, blockSize-MaxUnwindDataSize+1)
	_, _, err := a.Allocate(nil, code)
	require.ErrorIs(t, err, ErrOversizeRequest)
	assert.Equal(t, 0, a.BlockCount(), "a rejected oversize request must not touch the block pool")
}

func TestAllocate_CapacityExhausted(t *testing.T) {
	requireSupportedOSArch(t)
	blockSize := platform.PageSize
	a := newTestAllocator(t, blockSize, 4*blockSize)

	for i := 0; i < 4; i++ {
		_, _, err := a.Allocate(nil, make([]byte, blockSize-MaxUnwindDataSize))
		require.NoError(t, err, "allocation %d should fit in its own block", i)
	}
	assert.Equal(t, 4, a.BlockCount())

	_, _, err := a.Allocate(nil, make([]byte, 1))
	require.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, 4, a.BlockCount(), "a capacity failure must not allocate a 5th block")
}

func TestAllocate_NonOverlappingAcrossBlocks(t *testing.T) {
	requireSupportedOSArch(t)
	blockSize := 2 * platform.PageSize
	a := newTestAllocator(t, blockSize, 8*blockSize)

	type span struct {
		start, end uintptr
	}
	var spans []span
	for i := 0; i < 6; i++ {
		code := make([]byte, platform.PageSize/2)
		result, codeAddr, err := a.Allocate(nil, code)
		require.NoError(t, err)
		start := codeAddr
		end := start + uintptr(len(result))
		spans = append(spans, span{start, end})
	}

	for i := range spans {
		for j := range spans {
			if i == j {
				continue
			}
			overlap := spans[i].start < spans[j].end && spans[j].start < spans[i].end
			assert.False(t, overlap, "spans %d and %d overlap", i, j)
		}
	}
}

func TestAllocate_EmptyCodeIsLegal(t *testing.T) {
	requireSupportedOSArch(t)
	a := newTestAllocator(t, 4*platform.PageSize, 16*platform.PageSize)

	result, codeAddr, err := a.Allocate([]byte{0x01, 0x02}, nil)
	require.NoError(t, err)
	assert.Len(t, result, 16)
	assert.NotZero(t, codeAddr)
}

type countingHook struct {
	created  int
	destroyed int
	failAt   int // 1-indexed Create call that should fail, 0 disables
}

func (h *countingHook) Create(block []byte) (interface{}, int, bool) {
	h.created++
	if h.failAt != 0 && h.created == h.failAt {
		return nil, 0, false
	}
	return h.created, 40, true
}

func (h *countingHook) Destroy(handle interface{}) {
	h.destroyed++
}

func TestAllocate_UnwindHookLifecycle(t *testing.T) {
	requireSupportedOSArch(t)
	blockSize := 2 * platform.PageSize
	hook := &countingHook{}
	a := NewAllocator(blockSize, 8*blockSize, hook)

	// Fill the first block, then spill into a second.
	_, _, err := a.Allocate(nil, make([]byte, platform.PageSize))
	require.NoError(t, err)
	_, _, err = a.Allocate(nil, make([]byte, platform.PageSize))
	require.NoError(t, err)

	assert.Equal(t, 2, a.BlockCount())
	assert.Equal(t, 2, hook.created)

	require.NoError(t, a.Close())
	assert.Equal(t, 2, hook.destroyed)
}

func TestAllocate_UnwindHookRejectionFailsAllocation(t *testing.T) {
	requireSupportedOSArch(t)
	blockSize := platform.PageSize
	hook := &countingHook{failAt: 2}
	a := NewAllocator(blockSize, 8*blockSize, hook)

	result1, codeAddr1, err := a.Allocate(nil, make([]byte, 16))
	require.NoError(t, err)
	require.Equal(t, 1, a.BlockCount())

	// This spills into a second block, whose hook.Create call is configured
	// to fail.
	_, _, err = a.Allocate(nil, make([]byte, blockSize-MaxUnwindDataSize))
	require.ErrorIs(t, err, ErrUnwindHookFailed)

	// The first block and its previously returned pointers remain valid.
	assert.Equal(t, byte(0), result1[0])
	assert.NotZero(t, codeAddr1)

	require.NoError(t, a.Close())
}

func TestNewAllocator_PanicsOnInvalidBlockSize(t *testing.T) {
	assert.Panics(t, func() {
		NewAllocator(MaxUnwindDataSize, MaxUnwindDataSize*2, nil)
	})
}

func TestNewAllocator_PanicsOnInvalidMaxTotalSize(t *testing.T) {
	assert.Panics(t, func() {
		NewAllocator(4*platform.PageSize, platform.PageSize, nil)
	})
}
