package codegen

import "errors"

// These are the four ways Allocate can fail. All surface identically to the
// caller as "allocation did not happen" — none carry recoverable state, and
// the allocator never retries on any of them.
var (
	// ErrOversizeRequest means totalSize exceeds blockSize-MaxUnwindDataSize:
	// the request can never fit in any block this allocator will ever create.
	ErrOversizeRequest = errors.New("codegen: request too large for block size")

	// ErrCapacityExhausted means satisfying the request would require a new
	// block that would push the allocator's total reservation past
	// maxTotalSize.
	ErrCapacityExhausted = errors.New("codegen: total size cap reached")

	// ErrPlatformReserve means the OS refused to reserve a new block.
	ErrPlatformReserve = errors.New("codegen: platform memory reservation failed")

	// ErrUnwindHookFailed means the configured unwind hook's create callback
	// returned ok=false for a new block.
	ErrUnwindHookFailed = errors.New("codegen: unwind hook rejected new block")
)
