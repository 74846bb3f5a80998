//go:build unix

package sysmem

import (
	"golang.org/x/sys/unix"
)

// Map reserves n bytes of anonymous, writable pages from the OS.
// n must be a page multiple.
func Map(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// Unmap returns pages obtained from Map to the OS.
func Unmap(b []byte) error {
	return unix.Munmap(b)
}
