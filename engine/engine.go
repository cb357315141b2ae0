// Package engine wraps codegen.Allocator with the ambient concerns a real
// JIT deployment needs around it — structured logging, metrics, and a
// stable identity for multi-engine setups — without reaching into or
// altering the allocator's own behavior. codegen.Allocator itself never
// logs and never retries; this package only observes it.
package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axstin/luau/codegen"
	"github.com/axstin/luau/internal/metrics"
)

// Engine supervises one codegen.Allocator. Like the allocator it wraps, an
// Engine is not safe for concurrent use; §5 of the allocator's design
// applies unchanged — serialize externally, or run one Engine per thread.
type Engine struct {
	ID       uuid.UUID
	alloc    *codegen.Allocator
	log      *zap.Logger
	recorder metrics.Recorder

	lastBlockCount int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the default no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithRecorder overrides the default no-op metrics.Recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// New constructs an Engine over a fresh allocator sized blockSize/maxTotalSize,
// using hook for unwind-info generation (nil disables it).
func New(blockSize, maxTotalSize int, hook codegen.UnwindHook, opts ...Option) *Engine {
	e := &Engine{
		ID:       uuid.New(),
		alloc:    codegen.NewAllocator(blockSize, maxTotalSize, hook),
		log:      zap.NewNop(),
		recorder: metrics.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(zap.String("engine_id", e.ID.String()))
	return e
}

// Publish allocates data and code through the wrapped allocator, logging
// and recording metrics around the call. The allocator's result is
// returned unchanged; Publish adds no retries and no buffering.
func (e *Engine) Publish(data, code []byte) (result []byte, codeAddr uintptr, err error) {
	blocksBefore := e.alloc.BlockCount()

	result, codeAddr, err = e.alloc.Allocate(data, code)
	if err != nil {
		e.recorder.AllocationFailed(reasonFor(err))
		e.log.Warn("allocation failed",
			zap.Int("data_len", len(data)),
			zap.Int("code_len", len(code)),
			zap.Error(err),
		)
		return nil, 0, err
	}

	if blocksAfter := e.alloc.BlockCount(); blocksAfter != blocksBefore {
		e.recorder.BlockReserved(blocksAfter)
		e.log.Info("reserved new block",
			zap.Int("total_blocks", blocksAfter),
			zap.Int("total_reserved_bytes", e.alloc.TotalReserved()),
		)
	}
	e.recorder.BytesPublished(len(result))

	return result, codeAddr, nil
}

// BlockCount and TotalReserved pass through to the wrapped allocator.
func (e *Engine) BlockCount() int    { return e.alloc.BlockCount() }
func (e *Engine) TotalReserved() int { return e.alloc.TotalReserved() }

// Close tears down the wrapped allocator.
func (e *Engine) Close() error {
	e.log.Info("closing engine",
		zap.Int("total_blocks", e.alloc.BlockCount()),
		zap.Int("total_reserved_bytes", e.alloc.TotalReserved()),
	)
	if err := e.alloc.Close(); err != nil {
		e.log.Error("error releasing blocks", zap.Error(err))
		return err
	}
	return nil
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, codegen.ErrOversizeRequest):
		return "oversize_request"
	case errors.Is(err, codegen.ErrCapacityExhausted):
		return "capacity_exhausted"
	case errors.Is(err, codegen.ErrUnwindHookFailed):
		return "unwind_hook_failed"
	case errors.Is(err, codegen.ErrPlatformReserve):
		return "platform_reserve"
	default:
		return fmt.Sprintf("unknown: %v", err)
	}
}
