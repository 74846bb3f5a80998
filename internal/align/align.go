package align

// Alignment utilities for the heap hierarchy.
// Fixed-size block heaps require word-aligned sizes; the OS page heap
// requires page-multiple sizes.

import "unsafe"

// Word is the machine word size in bytes (8 on 64-bit platforms, 4 on 32-bit).
const Word = unsafe.Sizeof(uintptr(0))

const wordMask = Word - 1

// Up returns n aligned up to the next machine-word boundary.
// Used for block sizes so the first word of a free block can carry a link.
//
// Example (64-bit):
//
//	Up(1)  = 8
//	Up(8)  = 8
//	Up(9)  = 16
func Up(n uintptr) uintptr {
	return (n + wordMask) & ^wordMask
}

// Page returns n aligned up to the next multiple of page.
// page must be a power of two.
//
// Example (page = 4096):
//
//	Page(1, 4096)    = 4096
//	Page(4096, 4096) = 4096
//	Page(4097, 4096) = 8192
func Page(n uintptr, page int) uintptr {
	mask := uintptr(page) - 1
	return (n + mask) & ^mask
}
