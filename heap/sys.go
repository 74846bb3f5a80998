package heap

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/zjufish/immer/internal/align"
	"github.com/zjufish/immer/internal/sysmem"
)

// Sys is a base heap that maps anonymous pages directly from the OS.
// Every request is rounded up to a page multiple, so it suits page-granular
// or large blocks, and keeps pooled memory out of GC scanning entirely.
type Sys struct {
	logger *zap.Logger

	mu     sync.Mutex
	mapped map[unsafe.Pointer][]byte
}

// NewSys returns a Sys heap. logger may be nil; map and unmap events are
// logged at debug level.
func NewSys(logger *zap.Logger) *Sys {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sys{logger: logger, mapped: make(map[unsafe.Pointer][]byte)}
}

// Alloc maps at least size bytes of fresh pages. The usable capacity is the
// page-rounded size.
func (s *Sys) Alloc(size uintptr) (unsafe.Pointer, error) {
	n := align.Page(size, sysmem.Pagesize())
	if n < size || int(n) < 0 {
		return nil, errors.Wrapf(ErrSizeOverflow, "%d bytes", size)
	}
	if n == 0 {
		n = uintptr(sysmem.Pagesize())
	}
	b, err := sysmem.Map(int(n))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "heap: map %d bytes", n), ErrOutOfMemory)
	}
	p := unsafe.Pointer(&b[0])

	s.mu.Lock()
	s.mapped[p] = b
	s.mu.Unlock()

	s.logger.Debug("mapped pages", zap.Uintptr("addr", uintptr(p)), zap.Uintptr("bytes", n))
	return p, nil
}

// Free unmaps the pages backing p.
func (s *Sys) Free(_ uintptr, p unsafe.Pointer) {
	s.mu.Lock()
	b, ok := s.mapped[p]
	delete(s.mapped, p)
	s.mu.Unlock()
	if !ok {
		panic(errors.AssertionFailedf("heap: free of block %p not mapped by this heap", p))
	}
	if err := sysmem.Unmap(b); err != nil {
		panic(errors.AssertionFailedf("heap: unmap %p: %v", p, err))
	}
	s.logger.Debug("unmapped pages", zap.Uintptr("addr", uintptr(p)), zap.Int("bytes", len(b)))
}

// InUse reports the number of outstanding mappings.
func (s *Sys) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mapped)
}
