//go:build darwin || freebsd || linux

package hosting

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// charPtr converts s to a NUL-terminated char_t string (UTF-8).
func charPtr(s string) (unsafe.Pointer, error) {
	p, err := unix.BytePtrFromString(s)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(p), nil
}
