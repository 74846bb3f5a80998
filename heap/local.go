package heap

import (
	"unsafe"

	"go.uber.org/zap"
)

// Local is a fixed-size pool owned by a single goroutine, layered over a
// shared fallback (typically a FreeList of the same size). Alloc and Free
// touch only unsynchronized state in the common case and reach the shared
// tier only on a miss or overflow.
//
// When the owning goroutine finishes it must call Close: every block still
// cached locally is pushed to the shared tier in one batch, so the memory
// moves from goroutine-local to global scope instead of leaking. This is
// the Go rendition of a thread-local cache with a thread-exit drain hook.
type Local struct {
	serial
	logger *zap.Logger
	closed bool
}

// NewLocal returns a goroutine-local pool of size-byte blocks caching at
// most limit of them. limit <= 0 means DefaultLimit. logger may be nil.
func NewLocal(size uintptr, limit int, fallback Heap, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{serial: newSerial(size, limit, fallback), logger: logger}
}

// Size returns the fixed block size of this pool.
func (l *Local) Size() uintptr {
	return l.size
}

// Cached returns the number of blocks currently cached locally.
func (l *Local) Cached() int {
	return l.cached
}

// Alloc pops the most recently freed local block or falls through to the
// shared tier. The requested size is ignored: every block has Size()
// usable bytes. After Close, requests go straight to the shared tier.
func (l *Local) Alloc(uintptr) (unsafe.Pointer, error) {
	if l.closed {
		return l.fallback.Alloc(l.size)
	}
	return l.alloc()
}

// Free caches the block locally, or forwards it to the shared tier when the
// local cache is full or the pool is closed.
func (l *Local) Free(_ uintptr, p unsafe.Pointer) {
	if l.closed {
		l.fallback.Free(l.size, p)
		return
	}
	l.release(p)
}

// Close drains every cached block into the shared tier and marks the pool
// closed. Idempotent. The drain only pushes and forwards; it cannot fail
// or block. Must be called by the owning goroutine; deferring it at the top
// of the worker is the intended use.
func (l *Local) Close() {
	if l.closed {
		return
	}
	n := l.drain()
	l.closed = true
	if n > 0 {
		l.logger.Debug("drained local pool",
			zap.Uintptr("blockSize", l.size),
			zap.Int("blocks", n))
	}
}
