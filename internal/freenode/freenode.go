// Package freenode is the unsafe boundary of the heap hierarchy: it is the
// only code that reinterprets the first word of a free block as an intrusive
// link to the next free block.
//
// Invariants enforced here and nowhere else:
//
//   - A block pushed onto a stack must be at least WordSize bytes, so its
//     first word can carry the link.
//   - A block is linked into at most one stack, and only while no caller
//     owns it. The first word is smashed on push and is the caller's to
//     overwrite again after pop.
//   - Links are stored as uintptr words, never as Go pointers, so the
//     garbage collector does not trace them. The heap that produced a block
//     is responsible for keeping its memory alive while it sits in a stack.
//
// The classic Treiber-stack recycled-node hazard does not apply: a block
// enters a stack only after its single owner releases it and leaves the
// stack before a new owner receives it, so no goroutine can observe a link
// word of a block it does not hold the head reference to.
package freenode

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/zjufish/immer/internal/align"
)

// WordSize is the minimum block size able to carry a free-list link.
const WordSize = align.Word

// spinBudget bounds how long a CAS loop spins before yielding the
// processor. Retries happen only under contention from other goroutines,
// never on exhaustion, so the loop always terminates.
const spinBudget = 16

// link reads the link word stored at the start of a free block.
func link(p unsafe.Pointer) uintptr {
	return *(*uintptr)(p)
}

// setLink overwrites the first word of a free block with the link w.
func setLink(p unsafe.Pointer, w uintptr) {
	*(*uintptr)(p) = w
}

// fromWord converts a stored link word back into a pointer. Blocks linked
// into a stack are kept alive by their base heap, so the round trip through
// uintptr is valid here.
func fromWord(w uintptr) unsafe.Pointer {
	return unsafe.Pointer(w) //nolint:govet // intrusive link, memory pinned by the base heap
}

// Stack is a LIFO of free blocks with no synchronization. Valid only while
// a single goroutine owns it.
type Stack struct {
	head uintptr
}

// Push links p in front of the current head.
func (s *Stack) Push(p unsafe.Pointer) {
	setLink(p, s.head)
	s.head = uintptr(p)
}

// Pop unlinks and returns the most recently pushed block, or nil when the
// stack is empty.
func (s *Stack) Pop() unsafe.Pointer {
	if s.head == 0 {
		return nil
	}
	p := fromWord(s.head)
	s.head = link(p)
	return p
}

// Empty reports whether the stack holds no blocks.
func (s *Stack) Empty() bool {
	return s.head == 0
}

// AtomicStack is a lock-free LIFO of free blocks shared between goroutines.
// Push and pop run a compare-and-swap retry loop on the head word with
// bounded spin-then-yield backoff.
type AtomicStack struct {
	head atomic.Uintptr
}

// Push links p in front of the current head.
func (s *AtomicStack) Push(p unsafe.Pointer) {
	for spins := 0; ; spins++ {
		old := s.head.Load()
		setLink(p, old)
		if s.head.CompareAndSwap(old, uintptr(p)) {
			return
		}
		pause(spins)
	}
}

// Pop unlinks and returns the most recently pushed block, or nil when the
// stack is empty.
func (s *AtomicStack) Pop() unsafe.Pointer {
	for spins := 0; ; spins++ {
		old := s.head.Load()
		if old == 0 {
			return nil
		}
		next := link(fromWord(old))
		if s.head.CompareAndSwap(old, next) {
			return fromWord(old)
		}
		pause(spins)
	}
}

// Empty reports whether the stack held no blocks at the moment of the load.
func (s *AtomicStack) Empty() bool {
	return s.head.Load() == 0
}

func pause(spins int) {
	if spins >= spinBudget {
		runtime.Gosched()
	}
}
