package heap

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/zjufish/immer/internal/align"
)

// Header layout: one word for the requested size, one word for a guard
// derived from it. The guard catches frees of pointers this heap never
// produced; it is replaced by a poison word on free to catch double frees.
const checkedHeaderSize = 2 * align.Word

const (
	guardSeed  uintptr = 0xDEADBF0D
	poisonWord uintptr = 0xFEE1DEAD
)

// Checked wraps a heap and validates the size-pairing contract: each block
// carries a header recording the size requested at Alloc, and Free asserts
// the caller passes the same size back. Violations are programming errors,
// reported by panicking with an assertion failure, never returned.
//
// Policy chains include Checked only when built with -tags debug; release
// chains elide it entirely. The type itself is always available for direct
// use.
type Checked struct {
	inner Heap
}

// NewChecked wraps h.
func NewChecked(h Heap) *Checked {
	return &Checked{inner: h}
}

func (c *Checked) Alloc(size uintptr) (unsafe.Pointer, error) {
	total := size + checkedHeaderSize
	if total < size {
		return nil, errors.Wrapf(ErrSizeOverflow, "%d bytes plus checking header", size)
	}
	base, err := c.inner.Alloc(total)
	if err != nil {
		return nil, err
	}
	hdr := (*[2]uintptr)(base)
	hdr[0] = size
	hdr[1] = size ^ guardSeed
	return unsafe.Add(base, checkedHeaderSize), nil
}

func (c *Checked) Free(size uintptr, p unsafe.Pointer) {
	base := unsafe.Add(p, -int(checkedHeaderSize))
	hdr := (*[2]uintptr)(base)
	stored, guard := hdr[0], hdr[1]
	switch {
	case guard == poisonWord:
		panic(errors.AssertionFailedf("heap: double free of block %p (size %d)", p, size))
	case guard != stored^guardSeed:
		panic(errors.AssertionFailedf(
			"heap: free of block %p: header corrupt or block not allocated through this heap", p))
	case stored != size:
		panic(errors.AssertionFailedf(
			"heap: free of block %p with size %d, allocated with size %d", p, size, stored))
	}
	hdr[1] = poisonWord
	c.inner.Free(stored+checkedHeaderSize, base)
}
