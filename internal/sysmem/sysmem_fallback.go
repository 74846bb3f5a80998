//go:build !unix && !windows

package sysmem

// Map falls back to GC-managed memory when page mapping is not available.
// The caller keeps the returned slice referenced while the memory is in use.
func Map(n int) ([]byte, error) {
	return make([]byte, n), nil
}

// Unmap is a no-op in the fallback; the GC reclaims the slice once the
// caller drops its reference.
func Unmap([]byte) error {
	return nil
}
