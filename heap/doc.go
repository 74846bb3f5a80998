// Package heap provides the pooled-allocation subsystem used by persistent
// collection nodes: a hierarchy of fixed-size free-list heaps, a
// size-dispatching split heap, a debug size-checking wrapper, and the policy
// layer that composes them per node size.
//
// # Overview
//
// Persistent (immutable, structurally shared) collections allocate and free
// enormous numbers of small, uniformly sized tree nodes. This package keeps
// those nodes out of the general-purpose allocator by recycling them through
// bounded LIFO free lists:
//
//   - FreeList: a global, lock-free pool of fixed-size blocks.
//   - Local: a single-goroutine pool that drains into a shared FreeList
//     when its owner finishes.
//   - UnsafeFreeList: the global pool without atomics, for callers that
//     guarantee single-threaded use.
//   - Split: routes requests at or below a fixed threshold to the pooled
//     path and larger requests to a fallback.
//   - Checked: validates size pairing and detects double frees; wired into
//     policy chains only under -tags debug.
//
// # Heap Interface
//
// Every tier implements the same contract:
//
//   - Alloc(size): returns a word-aligned block with at least size usable
//     bytes, or an error wrapping ErrOutOfMemory.
//   - Free(size, p): returns the block; size must equal the size passed to
//     the paired Alloc.
//
// # Base Heaps
//
// Native allocates from the Go heap and pins blocks in a registry so pooled
// memory stays live while it sits in a free list. Sys maps anonymous pages
// straight from the OS, keeping pooled memory out of GC scanning entirely.
// Metered wraps any heap with atomic counters for tests and introspection.
//
// # Policies
//
// A Policy resolves a node size to its heap chain once, caches the result in
// a size-keyed registry, and returns the same chain for every later request
// of that size, so all blocks of one size share one pool:
//
//	base := heap.NewNative()
//	policy := heap.NewFreeListPolicy(base, nil)
//	nodes := heap.NewAllocator[node](policy)
//
//	n, err := nodes.New()
//	if err != nil {
//	    return err
//	}
//	// ... use n ...
//	nodes.Free(n)
//
// Worker goroutines can avoid the shared pool's atomics entirely:
//
//	local := policy.AcquireLocal(unsafe.Sizeof(node{}))
//	defer local.Close() // drains cached blocks into the shared pool
//
// # Size Pairing
//
// The optimized path always hands out blocks of the chain's fixed size, even
// when the request is smaller. Callers must still Free with the size they
// passed to Alloc, not the block's capacity. Release builds do not check
// this; build with -tags debug to wire Checked into every policy chain and
// turn mismatches into fatal assertions.
//
// # Thread Safety
//
// FreeList, Native, Sys, Metered and all policy types are safe for
// concurrent use. Local and UnsafeFreeList are single-goroutine by contract;
// misuse is not detected.
//
// # Related Packages
//
//   - github.com/zjufish/immer/internal/freenode: the intrusive free-list
//     link boundary.
//   - github.com/zjufish/immer/internal/sysmem: OS page mapping behind Sys.
package heap
