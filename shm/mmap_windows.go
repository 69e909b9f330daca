//go:build windows

package shm

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// DefaultDir is unused on Windows; mappings are backed by the page file.
const DefaultDir = ""

// mapping is a named, page-file backed file mapping.
type mapping struct {
	data    []byte
	handle  windows.Handle
	addr    uintptr
	created bool
}

func openMapping(_ string, name string, size uint32) (*mapping, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}

	created := true
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, size, namePtr)
	if err == windows.ERROR_ALREADY_EXISTS && h != 0 {
		created = false
		err = nil
	}
	if err != nil {
		return nil, err
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, err
	}

	return &mapping{
		data:    viewBytes(addr, size),
		handle:  h,
		addr:    addr,
		created: created,
	}, nil
}

// viewBytes exposes a mapped view as a slice. The view lives outside the Go
// heap and stays valid until UnmapViewOfFile.
func viewBytes(addr uintptr, size uint32) []byte {
	p := *(*unsafe.Pointer)(unsafe.Pointer(&addr))
	return unsafe.Slice((*byte)(p), size)
}

func (m *mapping) bytes() []byte { return m.data }

func (m *mapping) close() error {
	var first error
	if m.addr != 0 {
		first = windows.UnmapViewOfFile(m.addr)
		m.addr = 0
		m.data = nil
	}
	if m.handle != 0 {
		if err := windows.CloseHandle(m.handle); err != nil && first == nil {
			first = err
		}
		m.handle = 0
	}
	return first
}
