//go:build windows

package sysmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Map reserves n bytes of committed, writable pages from the OS.
// n must be a page multiple.
func Map(n int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(n),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n), nil
}

// Unmap returns pages obtained from Map to the OS.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), 0, windows.MEM_RELEASE)
}
