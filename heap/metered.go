package heap

import (
	"sync/atomic"
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Metered wraps a heap with atomic counters. Tests use it as the
// instrumented fallback that observes forwarding behavior; programs use it
// for introspection. The wrapper adds two atomic adds per operation and no
// allocation.
type Metered struct {
	inner Heap

	allocs     atomic.Int64
	frees      atomic.Int64
	failed     atomic.Int64
	bytesAlloc atomic.Int64
	bytesFreed atomic.Int64
	inUseBytes atomic.Int64
	highWater  atomic.Int64
}

// Stats is a point-in-time snapshot of a Metered heap's counters.
type Stats struct {
	Allocs         int64 // successful Alloc calls
	Frees          int64 // Free calls
	FailedAllocs   int64 // Alloc calls that returned an error
	BytesAllocated int64 // sum of requested sizes over successful allocs
	BytesFreed     int64 // sum of sizes passed to Free
	InUseBytes     int64 // BytesAllocated - BytesFreed
	HighWaterBytes int64 // maximum InUseBytes ever observed
}

// NewMetered wraps h.
func NewMetered(h Heap) *Metered {
	return &Metered{inner: h}
}

func (m *Metered) Alloc(size uintptr) (unsafe.Pointer, error) {
	p, err := m.inner.Alloc(size)
	if err != nil {
		m.failed.Add(1)
		return nil, err
	}
	m.allocs.Add(1)
	m.bytesAlloc.Add(int64(size))
	cur := m.inUseBytes.Add(int64(size))
	for {
		hw := m.highWater.Load()
		if cur <= hw || m.highWater.CompareAndSwap(hw, cur) {
			break
		}
	}
	return p, nil
}

func (m *Metered) Free(size uintptr, p unsafe.Pointer) {
	m.frees.Add(1)
	m.bytesFreed.Add(int64(size))
	m.inUseBytes.Add(-int64(size))
	m.inner.Free(size, p)
}

// Stats returns a snapshot of the counters. Individual counters are read
// atomically; the snapshot as a whole is not a consistent cut under
// concurrent traffic.
func (m *Metered) Stats() Stats {
	return Stats{
		Allocs:         m.allocs.Load(),
		Frees:          m.frees.Load(),
		FailedAllocs:   m.failed.Load(),
		BytesAllocated: m.bytesAlloc.Load(),
		BytesFreed:     m.bytesFreed.Load(),
		InUseBytes:     m.inUseBytes.Load(),
		HighWaterBytes: m.highWater.Load(),
	}
}

// WriteStats streams the counter snapshot into an open JSON object.
func (m *Metered) WriteStats(json jwriter.ObjectState) {
	s := m.Stats()
	json.Name("allocs").Int(int(s.Allocs))
	json.Name("frees").Int(int(s.Frees))
	json.Name("failedAllocs").Int(int(s.FailedAllocs))
	json.Name("bytesAllocated").Int(int(s.BytesAllocated))
	json.Name("bytesFreed").Int(int(s.BytesFreed))
	json.Name("inUseBytes").Int(int(s.InUseBytes))
	json.Name("highWaterBytes").Int(int(s.HighWaterBytes))
}
