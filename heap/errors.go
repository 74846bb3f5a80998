package heap

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfMemory indicates the underlying allocator could not satisfy a
	// request. It propagates unchanged through every tier; no tier retries.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrSizeOverflow indicates a requested size too large to carry the
	// checking header or a page rounding without overflowing.
	ErrSizeOverflow = errors.New("heap: requested size overflows")
)
