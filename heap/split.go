package heap

import "unsafe"

// Split dispatches requests by size: at or below the threshold they go to
// the optimized heap, above it to the fallback. The optimized side always
// receives the fixed threshold size, never the exact request, since pooled
// tiers deal only in fixed blocks; a small request therefore returns a block
// whose capacity is the full threshold.
//
// Free routes by the same comparison on the original requested size. The
// caller must pass the exact size used at the paired Alloc, not the block's
// capacity: freeing with the capacity after a smaller request would still
// route to the optimized side here, but it desynchronizes the sizes seen by
// the heaps below. Debug builds wire Checked underneath to catch this.
type Split struct {
	threshold uintptr
	optimized Heap
	fallback  Heap
}

// NewSplit returns a split heap with the given threshold and branches.
func NewSplit(threshold uintptr, optimized, fallback Heap) *Split {
	return &Split{threshold: threshold, optimized: optimized, fallback: fallback}
}

// Threshold returns the dispatch boundary.
func (s *Split) Threshold() uintptr {
	return s.threshold
}

func (s *Split) Alloc(size uintptr) (unsafe.Pointer, error) {
	if size <= s.threshold {
		return s.optimized.Alloc(s.threshold)
	}
	return s.fallback.Alloc(size)
}

func (s *Split) Free(size uintptr, p unsafe.Pointer) {
	if size <= s.threshold {
		s.optimized.Free(s.threshold, p)
		return
	}
	s.fallback.Free(size, p)
}
