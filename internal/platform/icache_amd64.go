//go:build amd64 && unix

package platform

// FlushInstructionCache is a no-op on amd64: the architecture guarantees a
// coherent instruction cache with respect to stores from the same core,
// modulo the serializing effect already provided by the mprotect syscall
// in MakeExecutable. Kept as an explicit call site so callers never special
// case architectures.
func FlushInstructionCache(code []byte) {}
