package heap

import (
	"reflect"
	"unsafe"
)

// Allocator routes construction and destruction of one node type through
// its policy's optimized chain. This is the only place a type's size
// becomes the runtime size argument threaded through the hierarchy.
//
// T must not contain Go pointers: pooled memory is invisible to the garbage
// collector. Debug builds verify this at construction.
type Allocator[T any] struct {
	size uintptr
	heap Heap
}

// NewAllocator binds T to the chain p resolves for its size.
func NewAllocator[T any](p Policy) *Allocator[T] {
	assertNoHeapPointers(reflect.TypeOf((*T)(nil)).Elem())
	size := unsafe.Sizeof(*new(T))
	return &Allocator[T]{size: size, heap: p.Optimized(size)}
}

// New allocates and zeroes a T.
func (a *Allocator[T]) New() (*T, error) {
	p, err := a.heap.Alloc(a.size)
	if err != nil {
		return nil, err
	}
	clearBlock(p, a.size)
	return (*T)(p), nil
}

// Free returns a T obtained from New. The value must not be used after.
func (a *Allocator[T]) Free(t *T) {
	a.heap.Free(a.size, unsafe.Pointer(t))
}

// LocalAllocator is Allocator with a goroutine-local tier in front of the
// shared pool. The owning goroutine must call Close when done.
type LocalAllocator[T any] struct {
	size  uintptr
	local *Local
}

// NewLocalAllocator binds T to a fresh local tier over p's shared pool for
// its size.
func NewLocalAllocator[T any](p *FreeListPolicy) *LocalAllocator[T] {
	assertNoHeapPointers(reflect.TypeOf((*T)(nil)).Elem())
	size := unsafe.Sizeof(*new(T))
	return &LocalAllocator[T]{size: size, local: p.AcquireLocal(size)}
}

// New allocates and zeroes a T.
func (a *LocalAllocator[T]) New() (*T, error) {
	p, err := a.local.Alloc(a.size)
	if err != nil {
		return nil, err
	}
	clearBlock(p, a.size)
	return (*T)(p), nil
}

// Free returns a T obtained from New. The value must not be used after.
func (a *LocalAllocator[T]) Free(t *T) {
	a.local.Free(a.size, unsafe.Pointer(t))
}

// Close drains the local tier into the shared pool. Idempotent.
func (a *LocalAllocator[T]) Close() {
	a.local.Close()
}

// clearBlock zeroes the first size bytes of a block. Pooled blocks come
// back with the previous owner's bytes (and a smashed first word).
func clearBlock(p unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	clear(unsafe.Slice((*byte)(p), size))
}
