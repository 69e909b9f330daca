//go:build windows

package native

import (
	"golang.org/x/sys/windows"
)

const libraryPrefix = ""

func libraryExtension() string {
	return ".dll"
}

func systemLibraryDir() string {
	dir, err := windows.GetSystemDirectory()
	if err != nil {
		return ""
	}
	return dir
}

type platformOpener struct{}

func (platformOpener) Open(path string) (uintptr, error) {
	h, err := windows.LoadLibraryEx(path, 0, windows.LOAD_WITH_ALTERED_SEARCH_PATH)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func (platformOpener) Lookup(handle uintptr, symbol string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), symbol)
}

func (platformOpener) Close(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}
