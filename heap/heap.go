package heap

import (
	"unsafe"

	"go.uber.org/zap"
)

// Heap is the contract every tier of the hierarchy implements.
//
// Implementations:
//   - Native, Sys: base heaps backed by the Go heap and the OS.
//   - FreeList, UnsafeFreeList, Local: fixed-size caching tiers.
//   - Split: size-threshold dispatch between two heaps.
//   - Checked: size-pairing validation wrapper.
//   - Metered: counting wrapper.
type Heap interface {
	// Alloc returns a word-aligned block with at least size usable bytes.
	// Contents are unspecified. Fails only on underlying exhaustion, with
	// an error wrapping ErrOutOfMemory.
	Alloc(size uintptr) (unsafe.Pointer, error)

	// Free returns a block to the heap. size must equal the size passed to
	// the paired Alloc; a mismatch is a contract violation, caught only by
	// Checked in debug builds.
	Free(size uintptr, p unsafe.Pointer)
}

// DefaultLimit is the default maximum number of blocks a free-list tier
// caches before forwarding surplus frees to its fallback.
const DefaultLimit = 1 << 10

// Config tunes a policy instantiation. A nil *Config means defaults.
type Config struct {
	// Limit caps the number of cached blocks per free-list tier.
	// Zero means DefaultLimit.
	Limit int

	// Logger receives off-hot-path events (pool resolution, local drains).
	// Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig is the configuration used when nil is passed.
var DefaultConfig = Config{Limit: DefaultLimit}

func (c *Config) limit() int {
	if c == nil || c.Limit <= 0 {
		return DefaultLimit
	}
	return c.Limit
}

func (c *Config) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
