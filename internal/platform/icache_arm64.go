//go:build arm64 && unix

package platform

// flushICache is implemented in icache_arm64.s.
func flushICache(ptr *byte, size int)
