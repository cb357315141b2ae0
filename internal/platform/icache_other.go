//go:build !amd64 && !arm64 && !windows

package platform

// FlushInstructionCache has no known-correct implementation on this
// GOARCH/GOOS combination without cgo. The allocator still functions, but
// freshly published code is not guaranteed visible to the instruction
// fetcher; callers on exotic platforms should prefer an interpreter.
func FlushInstructionCache(code []byte) {}
