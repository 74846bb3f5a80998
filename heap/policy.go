package heap

import (
	"sort"
	"strconv"
	"sync"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"go.uber.org/zap"

	"github.com/zjufish/immer/internal/align"
	"github.com/zjufish/immer/internal/freenode"
)

// Policy resolves node sizes to heap chains. Resolution is pure and
// deterministic per policy value: the same size always yields a chain backed
// by the same pool state, so every block of one size shares one free list.
// Chains are resolved once per distinct size and cached in a size-keyed
// registry, not recomputed per allocation.
type Policy interface {
	// Heap returns the heap for non-optimized (arbitrary-size) use.
	Heap() Heap

	// Optimized returns the heap chain for blocks of the given size.
	Optimized(size uintptr) Heap
}

// PlainPolicy ignores size and always yields the supplied heap. It is the
// baseline with no pooling at all.
type PlainPolicy struct {
	base Heap
}

// NewPlainPolicy returns a policy that resolves every size to base.
func NewPlainPolicy(base Heap) *PlainPolicy {
	return &PlainPolicy{base: base}
}

func (p *PlainPolicy) Heap() Heap {
	return p.base
}

func (p *PlainPolicy) Optimized(uintptr) Heap {
	return p.base
}

// sizedPool is one resolved chain: the shared free list for a block size and
// the split heap routing requests into it.
type sizedPool struct {
	size   uintptr
	shared *FreeList
	chain  Heap
}

// FreeListPolicy resolves each node size to a three-tier chain: a split heap
// dispatching small requests into a shared lock-free FreeList of that size,
// with the base heap (size-checked in debug builds) as the cold path. Worker
// goroutines can additionally acquire a Local tier in front of the shared
// pool via AcquireLocal.
//
// One policy value owns one set of pools; construct one policy per base-heap
// configuration and share it program-wide.
type FreeListPolicy struct {
	base   Heap
	limit  int
	logger *zap.Logger

	mu    sync.Mutex
	pools map[uintptr]*sizedPool
}

// NewFreeListPolicy returns a thread-safe pooling policy over base.
// cfg may be nil for defaults.
func NewFreeListPolicy(base Heap, cfg *Config) *FreeListPolicy {
	return &FreeListPolicy{
		base:   base,
		limit:  cfg.limit(),
		logger: cfg.logger(),
		pools:  make(map[uintptr]*sizedPool),
	}
}

// Heap returns the base heap for non-optimized use, size-checked in debug
// builds.
func (p *FreeListPolicy) Heap() Heap {
	return debugWrap(p.base)
}

// Optimized returns the pooled chain for blocks of the given size. Two calls
// with the same size return chains sharing the same free list, so blocks
// freed through one are available to the other.
func (p *FreeListPolicy) Optimized(size uintptr) Heap {
	return p.resolve(size).chain
}

// AcquireLocal returns a fresh goroutine-local tier in front of the shared
// pool for the given size. The caller owns it exclusively and must Close it
// when done so cached blocks drain back to the shared pool.
func (p *FreeListPolicy) AcquireLocal(size uintptr) *Local {
	pool := p.resolve(size)
	return NewLocal(pool.size, p.limit, pool.shared, p.logger)
}

// Cached returns the advisory number of blocks in the shared pool for the
// given size, resolving the pool if needed.
func (p *FreeListPolicy) Cached(size uintptr) int {
	return p.resolve(size).shared.Cached()
}

func (p *FreeListPolicy) resolve(size uintptr) *sizedPool {
	s := align.Up(size)
	if s < freenode.WordSize {
		s = freenode.WordSize
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	pool, ok := p.pools[s]
	if !ok {
		shared := NewFreeList(s, p.limit, debugWrap(p.base))
		pool = &sizedPool{
			size:   s,
			shared: shared,
			chain:  NewSplit(s, shared, debugWrap(p.base)),
		}
		p.pools[s] = pool
		p.logger.Debug("resolved pool",
			zap.Uintptr("blockSize", s),
			zap.Int("limit", p.limit))
	}
	return pool
}

// WriteDetailedMap streams one entry per resolved pool into an open JSON
// object, keyed by block size.
func (p *FreeListPolicy) WriteDetailedMap(json jwriter.ObjectState) error {
	p.mu.Lock()
	sizes := make([]uintptr, 0, len(p.pools))
	for s := range p.pools {
		sizes = append(sizes, s)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	pools := make([]*sizedPool, len(sizes))
	for i, s := range sizes {
		pools[i] = p.pools[s]
	}
	p.mu.Unlock()

	for _, pool := range pools {
		entry := json.Name(strconv.FormatUint(uint64(pool.size), 10)).Object()
		entry.Name("blockSize").Int(int(pool.size))
		entry.Name("cached").Int(pool.shared.Cached())
		entry.Name("limit").Int(p.limit)
		entry.End()
	}
	return nil
}

// UnsafeFreeListPolicy is FreeListPolicy for single-threaded programs: the
// pooled tier is an unsynchronized UnsafeFreeList and there is no local
// tier. Heap() returns the base heap itself, unwrapped, matching the
// asymmetry of the thread-safe variant's debug wrapping only on the
// optimized path's fallback.
//
// Resolution itself is still mutex-guarded; only the resolved pools assume
// single-threaded use.
type UnsafeFreeListPolicy struct {
	base   Heap
	limit  int
	logger *zap.Logger

	mu    sync.Mutex
	pools map[uintptr]Heap
}

// NewUnsafeFreeListPolicy returns a single-threaded pooling policy over
// base. cfg may be nil for defaults.
func NewUnsafeFreeListPolicy(base Heap, cfg *Config) *UnsafeFreeListPolicy {
	return &UnsafeFreeListPolicy{
		base:   base,
		limit:  cfg.limit(),
		logger: cfg.logger(),
		pools:  make(map[uintptr]Heap),
	}
}

// Heap returns the base heap, unwrapped.
func (p *UnsafeFreeListPolicy) Heap() Heap {
	return p.base
}

// Optimized returns the pooled chain for blocks of the given size. The
// chain must only ever be used from one goroutine.
func (p *UnsafeFreeListPolicy) Optimized(size uintptr) Heap {
	s := align.Up(size)
	if s < freenode.WordSize {
		s = freenode.WordSize
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	chain, ok := p.pools[s]
	if !ok {
		chain = NewSplit(s, NewUnsafeFreeList(s, p.limit, debugWrap(p.base)), debugWrap(p.base))
		p.pools[s] = chain
		p.logger.Debug("resolved unsafe pool",
			zap.Uintptr("blockSize", s),
			zap.Int("limit", p.limit))
	}
	return chain
}
