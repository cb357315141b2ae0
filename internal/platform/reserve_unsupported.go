//go:build !unix && !windows

package platform

import (
	"fmt"
	"runtime"
)

var errUnsupported = fmt.Errorf("platform: executable memory allocation unsupported on GOOS=%s", runtime.GOOS)

func pageSize() int {
	return 4096
}

func ReserveExecutableBlock(size int) ([]byte, error) {
	return nil, errUnsupported
}

func Unreserve(block []byte) error {
	return errUnsupported
}

func MakeExecutable(mem []byte) error {
	return errUnsupported
}
