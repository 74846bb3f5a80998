package heap

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func Test_Native_InUse(t *testing.T) {
	n := NewNative()
	require.Equal(t, 0, n.InUse())

	p1, err := n.Alloc(64)
	require.NoError(t, err)
	p2, err := n.Alloc(64)
	require.NoError(t, err)
	require.Equal(t, 2, n.InUse())

	n.Free(64, p1)
	require.Equal(t, 1, n.InUse())
	n.Free(64, p2)
	require.Equal(t, 0, n.InUse())
}

func Test_Native_ForeignFreePanics(t *testing.T) {
	n := NewNative()
	var x uintptr
	require.Panics(t, func() { n.Free(8, unsafe.Pointer(&x)) })
}

// Test_Native_PinSurvivesGC verifies the registry keeps blocks alive while
// they sit in a free list above, even across a collection cycle.
func Test_Native_PinSurvivesGC(t *testing.T) {
	n := NewNative()
	fl := NewFreeList(64, 8, n)

	p, err := fl.Alloc(64)
	require.NoError(t, err)
	fill(p, 64, 0xCD)
	fl.Free(64, p)
	require.Equal(t, 1, n.InUse())

	runtime.GC()
	runtime.GC()

	got, err := fl.Alloc(64)
	require.NoError(t, err)
	require.Equal(t, p, got)
	// Link word was smashed on free; the rest of the block is intact.
	require.True(t, check(unsafe.Add(got, unsafe.Sizeof(uintptr(0))), 64-unsafe.Sizeof(uintptr(0)), 0xCD))
	fl.Free(64, got)
}

func Test_Native_ZeroSize(t *testing.T) {
	n := NewNative()
	p, err := n.Alloc(0)
	require.NoError(t, err)
	require.NotNil(t, p)
	n.Free(0, p)
}

func Test_Native_DebugLogOutstanding(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	n := NewNative()
	p, err := n.Alloc(64)
	require.NoError(t, err)

	n.DebugLogOutstanding(logger)
	require.Equal(t, 1, logs.FilterMessage("outstanding block").Len())
	n.Free(64, p)
}
