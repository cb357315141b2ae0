package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSupportedOSArch(t *testing.T) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skip("executable memory allocation requires amd64 or arm64")
	}
}

func TestPageSize_IsPowerOfTwo(t *testing.T) {
	require.Greater(t, PageSize, 0)
	assert.Zero(t, PageSize&(PageSize-1), "page size must be a power of two")
}

func TestRoundUpToPage(t *testing.T) {
	assert.EqualValues(t, PageSize, RoundUpToPage(1))
	assert.EqualValues(t, PageSize, RoundUpToPage(uintptr(PageSize)))
	assert.EqualValues(t, 2*PageSize, RoundUpToPage(uintptr(PageSize+1)))
	assert.EqualValues(t, 0, RoundUpToPage(0))
}

func TestRoundUp16(t *testing.T) {
	assert.EqualValues(t, 0, RoundUp16(0))
	assert.EqualValues(t, 16, RoundUp16(1))
	assert.EqualValues(t, 16, RoundUp16(16))
	assert.EqualValues(t, 32, RoundUp16(17))
}

func TestReserveMakeExecutableUnreserve(t *testing.T) {
	requireSupportedOSArch(t)

	block, err := ReserveExecutableBlock(PageSize)
	require.NoError(t, err)
	require.Len(t, block, PageSize)

	block[0] = 0xC3 // ret
	require.NoError(t, MakeExecutable(block))

	FlushInstructionCache(block)

	require.NoError(t, Unreserve(block))
}
