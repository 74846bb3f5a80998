//go:build debug

package heap

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// DebugChecks reports whether the binary was built with -tags debug.
const DebugChecks = true

// debugWrap inserts the size-checking wrapper into policy chains.
// Only enabled with -tags debug.
func debugWrap(h Heap) Heap {
	return NewChecked(h)
}

// assertNoHeapPointers panics if values of t would carry Go pointers into
// pooled memory, where the garbage collector cannot see them.
// Only enabled with -tags debug.
func assertNoHeapPointers(t reflect.Type) {
	if typeHasPointers(t) {
		panic(errors.AssertionFailedf("heap: type %s contains Go pointers and cannot live in pooled memory", t))
	}
}

func typeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Slice, reflect.String, reflect.Interface:
		return true
	case reflect.Struct:
		for i := range t.NumField() {
			if typeHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	case reflect.Array:
		return t.Len() > 0 && typeHasPointers(t.Elem())
	default:
		return false
	}
}
