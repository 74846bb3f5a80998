package heap

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/zjufish/immer/internal/align"
)

// leakHeap allocates from the Go heap and never releases, so freed blocks
// stay valid and tests can probe post-free behavior (double frees, poisoned
// headers) without touching reclaimed memory.
type leakHeap struct {
	bufs [][]uintptr
}

func (l *leakHeap) Alloc(size uintptr) (unsafe.Pointer, error) {
	words := align.Up(size) / align.Word
	if words == 0 {
		words = 1
	}
	buf := make([]uintptr, words)
	l.bufs = append(l.bufs, buf)
	return unsafe.Pointer(&buf[0]), nil
}

func (l *leakHeap) Free(uintptr, unsafe.Pointer) {}

// failHeap fails every allocation, simulating an exhausted underlying
// allocator.
type failHeap struct{}

func (failHeap) Alloc(size uintptr) (unsafe.Pointer, error) {
	return nil, errors.Wrapf(ErrOutOfMemory, "%d bytes", size)
}

func (failHeap) Free(uintptr, unsafe.Pointer) {}

// fill writes a byte pattern over the first n bytes of a block.
func fill(p unsafe.Pointer, n uintptr, b byte) {
	s := unsafe.Slice((*byte)(p), n)
	for i := range s {
		s[i] = b
	}
}

// check verifies the first n bytes of a block still hold the pattern.
func check(p unsafe.Pointer, n uintptr, b byte) bool {
	s := unsafe.Slice((*byte)(p), n)
	for i := range s {
		if s[i] != b {
			return false
		}
	}
	return true
}
