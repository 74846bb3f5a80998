package heap

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/zjufish/immer/internal/freenode"
)

// FreeList is a global, lock-free pool of fixed-size blocks. Freed blocks
// are kept on an intrusive Treiber stack and handed back most-recent-first;
// the pool refills from its fallback heap when empty and forwards surplus
// frees to it once the cached count reaches the limit.
//
// The cached count is advisory under concurrency: it is updated atomically
// but not in the same step as the stack, so the pool may briefly cache a few
// blocks more or fewer than the limit. It is exact whenever the pool is
// quiescent.
type FreeList struct {
	size     uintptr
	limit    int64
	fallback Heap

	free   freenode.AtomicStack
	cached atomic.Int64
}

// NewFreeList returns a pool of size-byte blocks caching at most limit of
// them. size is rounded up so a free block can carry its link word.
// limit <= 0 means DefaultLimit.
func NewFreeList(size uintptr, limit int, fallback Heap) *FreeList {
	if size < freenode.WordSize {
		size = freenode.WordSize
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FreeList{size: size, limit: int64(limit), fallback: fallback}
}

// Size returns the fixed block size of this pool.
func (f *FreeList) Size() uintptr {
	return f.size
}

// Cached returns the advisory count of blocks currently in the pool.
func (f *FreeList) Cached() int {
	return int(f.cached.Load())
}

// Alloc pops the most recently freed block, or refills from the fallback
// when the pool is empty. The requested size is ignored: this is a
// fixed-size tier and every block has Size() usable bytes.
func (f *FreeList) Alloc(uintptr) (unsafe.Pointer, error) {
	if p := f.free.Pop(); p != nil {
		f.cached.Add(-1)
		return p, nil
	}
	p, err := f.fallback.Alloc(f.size)
	if err != nil {
		return nil, errors.Wrapf(err, "heap: free list refill (block size %d)", f.size)
	}
	return p, nil
}

// Free caches the block for reuse, or forwards it to the fallback when the
// pool already holds its limit.
func (f *FreeList) Free(_ uintptr, p unsafe.Pointer) {
	if f.cached.Load() >= f.limit {
		f.fallback.Free(f.size, p)
		return
	}
	f.free.Push(p)
	f.cached.Add(1)
}
