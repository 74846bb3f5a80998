//go:build !debug

package heap

import "reflect"

// DebugChecks reports whether the binary was built with -tags debug.
const DebugChecks = false

// debugWrap is the identity in release builds: policy chains carry no
// size-checking overhead. Enable with -tags debug for validation.
func debugWrap(h Heap) Heap {
	return h
}

// assertNoHeapPointers is a no-op in release builds.
// Enable with -tags debug for runtime checks.
func assertNoHeapPointers(reflect.Type) {}
