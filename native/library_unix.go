//go:build darwin || freebsd || linux

package native

import (
	"runtime"

	"github.com/ebitengine/purego"
)

const libraryPrefix = "lib"

func libraryExtension() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

func systemLibraryDir() string {
	return "/usr/local/lib"
}

type platformOpener struct{}

func (platformOpener) Open(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
}

func (platformOpener) Lookup(handle uintptr, symbol string) (uintptr, error) {
	return purego.Dlsym(handle, symbol)
}

func (platformOpener) Close(handle uintptr) error {
	return purego.Dlclose(handle)
}
