package engine

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/axstin/luau/internal/platform"
)

func requireSupportedOSArch(t *testing.T) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skip("executable memory allocation requires amd64 or arm64")
	}
}

func TestEngine_PublishAndClose(t *testing.T) {
	requireSupportedOSArch(t)

	e := New(4*platform.PageSize, 16*platform.PageSize, nil)
	defer func() { require.NoError(t, e.Close()) }()

	result, codeAddr, err := e.Publish(nil, []byte{0x90, 0x90, 0xC3})
	require.NoError(t, err)
	require.Len(t, result, 3)
	require.NotZero(t, codeAddr)
	require.Equal(t, 1, e.BlockCount())
}

func TestEngine_HasUniqueID(t *testing.T) {
	requireSupportedOSArch(t)
	e1 := New(platform.PageSize, 4*platform.PageSize, nil)
	e2 := New(platform.PageSize, 4*platform.PageSize, nil)
	defer e1.Close()
	defer e2.Close()

	require.NotEqual(t, e1.ID, e2.ID)
}
