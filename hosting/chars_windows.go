//go:build windows

package hosting

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// charPtr converts s to a NUL-terminated char_t string (UTF-16).
func charPtr(s string) (unsafe.Pointer, error) {
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(p), nil
}
