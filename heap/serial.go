package heap

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/zjufish/immer/internal/freenode"
)

// serial is the unsynchronized free-list core shared by UnsafeFreeList and
// Local. Same algorithm as FreeList, plain reads and writes instead of
// atomics; valid only while a single goroutine touches it.
type serial struct {
	size     uintptr
	limit    int
	fallback Heap

	free   freenode.Stack
	cached int
}

func newSerial(size uintptr, limit int, fallback Heap) serial {
	if size < freenode.WordSize {
		size = freenode.WordSize
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return serial{size: size, limit: limit, fallback: fallback}
}

func (s *serial) alloc() (unsafe.Pointer, error) {
	if p := s.free.Pop(); p != nil {
		s.cached--
		return p, nil
	}
	p, err := s.fallback.Alloc(s.size)
	if err != nil {
		return nil, errors.Wrapf(err, "heap: free list refill (block size %d)", s.size)
	}
	return p, nil
}

func (s *serial) release(p unsafe.Pointer) {
	if s.cached >= s.limit {
		s.fallback.Free(s.size, p)
		return
	}
	s.free.Push(p)
	s.cached++
}

// drain pushes every cached block to the fallback and returns how many
// moved. The fallback's own limit policy decides what it re-caches.
func (s *serial) drain() int {
	n := 0
	for {
		p := s.free.Pop()
		if p == nil {
			break
		}
		s.fallback.Free(s.size, p)
		n++
	}
	s.cached = 0
	return n
}

// UnsafeFreeList is FreeList without atomics: a shared fixed-size pool for
// programs that guarantee single-threaded use. Concurrent access corrupts
// the list silently; no detection is provided.
type UnsafeFreeList struct {
	serial
}

// NewUnsafeFreeList returns an unsynchronized pool of size-byte blocks
// caching at most limit of them. limit <= 0 means DefaultLimit.
func NewUnsafeFreeList(size uintptr, limit int, fallback Heap) *UnsafeFreeList {
	return &UnsafeFreeList{serial: newSerial(size, limit, fallback)}
}

// Size returns the fixed block size of this pool.
func (u *UnsafeFreeList) Size() uintptr {
	return u.size
}

// Cached returns the number of blocks currently in the pool.
func (u *UnsafeFreeList) Cached() int {
	return u.cached
}

// Alloc pops the most recently freed block or refills from the fallback.
// The requested size is ignored: every block has Size() usable bytes.
func (u *UnsafeFreeList) Alloc(uintptr) (unsafe.Pointer, error) {
	return u.alloc()
}

// Free caches the block for reuse, or forwards it to the fallback when the
// pool already holds its limit.
func (u *UnsafeFreeList) Free(_ uintptr, p unsafe.Pointer) {
	u.release(p)
}
