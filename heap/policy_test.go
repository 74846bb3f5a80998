package heap

import (
	"encoding/json"
	"sync"
	"testing"
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"

	"github.com/zjufish/immer/internal/freenode"
)

func Test_PlainPolicy(t *testing.T) {
	base := NewNative()
	p := NewPlainPolicy(base)

	require.Same(t, Heap(base), p.Heap())
	require.Same(t, Heap(base), p.Optimized(48))
	require.Same(t, Heap(base), p.Optimized(4096))
}

func Test_FreeListPolicy_Determinism(t *testing.T) {
	p := NewFreeListPolicy(NewNative(), nil)

	h1 := p.Optimized(48)
	h2 := p.Optimized(48)
	require.Same(t, h1, h2)

	// Blocks freed through one resolution are available to the other:
	// one size, one pool.
	b, err := h1.Alloc(48)
	require.NoError(t, err)
	h1.Free(48, b)
	require.Equal(t, 1, p.Cached(48))

	got, err := h2.Alloc(48)
	require.NoError(t, err)
	require.Equal(t, b, got)
	h2.Free(48, got)
}

func Test_FreeListPolicy_SizeRounding(t *testing.T) {
	p := NewFreeListPolicy(NewNative(), nil)

	// Sizes below one word share the one-word pool.
	require.Same(t, p.Optimized(1), p.Optimized(freenode.WordSize))
	// Sizes within one word-aligned class share a pool.
	require.Same(t, p.Optimized(41), p.Optimized(48))
	require.NotSame(t, p.Optimized(48), p.Optimized(56))
}

func Test_FreeListPolicy_SplitRouting(t *testing.T) {
	base := NewMetered(NewNative())
	p := NewFreeListPolicy(base, &Config{Limit: 8})
	h := p.Optimized(64)

	// Oversized requests bypass the pool entirely.
	big, err := h.Alloc(128)
	require.NoError(t, err)
	h.Free(128, big)
	require.Equal(t, 0, p.Cached(64))

	// In-range requests are pooled.
	small, err := h.Alloc(32)
	require.NoError(t, err)
	h.Free(32, small)
	require.Equal(t, 1, p.Cached(64))
}

func Test_FreeListPolicy_LimitConfig(t *testing.T) {
	const limit = 2
	m := NewMetered(NewNative())
	p := NewFreeListPolicy(m, &Config{Limit: limit})
	h := p.Optimized(64)

	ps := make([]unsafe.Pointer, 5)
	for i := range ps {
		b, err := h.Alloc(64)
		require.NoError(t, err)
		ps[i] = b
	}
	for _, b := range ps {
		h.Free(64, b)
	}

	// The configured limit caps the pool; the surplus went back to the base.
	require.Equal(t, limit, p.Cached(64))
	require.Equal(t, int64(len(ps)-limit), m.Stats().Frees)
}

func Test_FreeListPolicy_AcquireLocal_SharesGlobalTier(t *testing.T) {
	const (
		workers = 4
		perWork = 3
	)
	p := NewFreeListPolicy(NewNative(), nil)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := p.AcquireLocal(48)
			defer local.Close()
			for j := 0; j < perWork; j++ {
				b, err := local.Alloc(48)
				if err != nil {
					t.Error(err)
					return
				}
				local.Free(48, b)
			}
		}()
	}
	wg.Wait()

	// Each worker's cache drained into the one shared pool.
	require.Equal(t, workers, p.Cached(48))
}

func Test_UnsafeFreeListPolicy(t *testing.T) {
	base := NewNative()
	p := NewUnsafeFreeListPolicy(base, nil)

	// The non-optimized heap is the base itself, unwrapped.
	require.Same(t, Heap(base), p.Heap())

	h1 := p.Optimized(48)
	h2 := p.Optimized(48)
	require.Same(t, h1, h2)

	b, err := h1.Alloc(48)
	require.NoError(t, err)
	h1.Free(48, b)
	got, err := h2.Alloc(48)
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func Test_FreeListPolicy_WriteDetailedMap(t *testing.T) {
	p := NewFreeListPolicy(NewNative(), &Config{Limit: 8})
	h := p.Optimized(48)

	b, err := h.Alloc(48)
	require.NoError(t, err)
	h.Free(48, b)
	p.Optimized(128)

	w := jwriter.NewWriter()
	obj := w.Object()
	require.NoError(t, p.WriteDetailedMap(obj))
	obj.End()
	require.NoError(t, w.Error())

	var m map[string]struct {
		BlockSize int `json:"blockSize"`
		Cached    int `json:"cached"`
		Limit     int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Bytes(), &m))
	require.Len(t, m, 2)
	require.Equal(t, 48, m["48"].BlockSize)
	require.Equal(t, 1, m["48"].Cached)
	require.Equal(t, 8, m["48"].Limit)
	require.Equal(t, 128, m["128"].BlockSize)
}
