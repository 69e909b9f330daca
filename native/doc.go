// Package native loads native shared libraries and resolves their exports.
//
// A Library wraps dlopen/dlsym/dlclose on Unix (through purego, no cgo
// required) and LoadLibrary/GetProcAddress/FreeLibrary on Windows:
//
//	lib := native.NewLibrary()
//	if err := lib.Load("hostfxr", "/usr/share/dotnet/host/fxr/9.0.0/"); err != nil {
//	    return err
//	}
//	defer lib.Unload()
//
//	closeFn, err := lib.Func("hostfxr_close")
//
// File names follow platform conventions (libNAME.so, libNAME.dylib,
// NAME.dll). When the file is not found in the search path, Load retries
// once from the system library directory.
//
// Resolved symbols are cached per Library. Func.Bind turns an address into
// a typed Go func; Func.Call invokes it with raw uintptr arguments.
package native
