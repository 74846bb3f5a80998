// Package sysmem provides platform-specific helpers for allocating anonymous
// pages directly from the operating system, bypassing the Go heap.
package sysmem

import "os"

// Pagesize returns the OS page granularity. Sizes passed to Map must be
// multiples of it.
func Pagesize() int {
	return os.Getpagesize()
}
