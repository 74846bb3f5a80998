package heap

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/zjufish/immer/internal/align"
)

// Native is a base heap backed by the Go allocator. Each block is a
// word-slice pinned in a registry so the memory stays live while a caller
// owns it or while it sits in a free list above; the pin is dropped on Free
// and the GC reclaims the block.
//
// Blocks are word arrays, so the GC never scans them for pointers. Callers
// must not store Go heap pointers in them.
type Native struct {
	mu     sync.Mutex
	pinned map[unsafe.Pointer][]uintptr
}

// NewNative returns an empty Native heap.
func NewNative() *Native {
	return &Native{pinned: make(map[unsafe.Pointer][]uintptr)}
}

// Alloc returns a zeroed, word-aligned block of at least size bytes.
// A zero size is served as a one-word request.
func (n *Native) Alloc(size uintptr) (unsafe.Pointer, error) {
	words := align.Up(size) / align.Word
	if words == 0 {
		words = 1
	}
	buf := make([]uintptr, words)
	p := unsafe.Pointer(&buf[0])

	n.mu.Lock()
	n.pinned[p] = buf
	n.mu.Unlock()
	return p, nil
}

// Free drops the pin for p. The size argument is not needed to locate the
// block; it is accepted to satisfy the Heap contract.
func (n *Native) Free(_ uintptr, p unsafe.Pointer) {
	n.mu.Lock()
	_, ok := n.pinned[p]
	delete(n.pinned, p)
	n.mu.Unlock()
	if !ok {
		panic(errors.AssertionFailedf("heap: free of block %p not allocated by this heap", p))
	}
}

// InUse reports the number of outstanding blocks: allocated or cached in a
// free list above, but not yet freed back to this heap.
func (n *Native) InUse() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pinned)
}

// DebugLogOutstanding writes one debug entry per outstanding block.
// Intended for leak hunting in tests; never call it on a hot path.
func (n *Native) DebugLogOutstanding(logger *zap.Logger) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for p, buf := range n.pinned {
		logger.Debug("outstanding block",
			zap.Uintptr("addr", uintptr(p)),
			zap.Int("bytes", len(buf)*int(align.Word)))
	}
}
