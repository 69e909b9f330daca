package hosting

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/wippyai/clr-host/native"
)

// HostFXR is the logical name of the runtime hosting library.
const HostFXR = "hostfxr"

// Exports resolved from the hosting library during Init.
const (
	SymbolInitializeForRuntimeConfig = "hostfxr_initialize_for_runtime_config"
	SymbolGetRuntimeDelegate         = "hostfxr_get_runtime_delegate"
	SymbolClose                      = "hostfxr_close"
)

// DelegateKind selects which runtime delegate hostfxr_get_runtime_delegate returns.
type DelegateKind int32

const (
	DelegateCOMActivation DelegateKind = iota
	DelegateLoadInMemoryAssembly
	DelegateWinRTActivation
	DelegateCOMRegister
	DelegateCOMUnregister
	DelegateLoadAssemblyAndGetFunctionPointer
	DelegateGetFunctionPointer
)

// unmanagedCallersOnly is the signature-descriptor sentinel, (const char_t*)-1,
// telling the runtime the target method is marked [UnmanagedCallersOnly].
const unmanagedCallersOnly = ^uintptr(0)

// API is the hosting library surface used by Controller.
// Status values follow hostfxr: zero is success.
type API interface {
	InitializeForRuntimeConfig(configPath string) (handle uintptr, status int32)
	GetRuntimeDelegate(handle uintptr, kind DelegateKind) (delegate uintptr, status int32)
	Close(handle uintptr) int32
	LoadAssemblyAndGetFunctionPointer(delegate uintptr, assemblyPath, typeName, methodName string) (fn uintptr, status int32)
}

// Binder resolves an API from a loaded hosting library.
type Binder func(lib *native.Library) (API, error)

// BindHostFXR resolves the three required hostfxr exports.
func BindHostFXR(lib *native.Library) (API, error) {
	var api nativeAPI
	var err error

	if api.initialize, err = lib.Func(SymbolInitializeForRuntimeConfig); err != nil {
		return nil, err
	}
	if api.getDelegate, err = lib.Func(SymbolGetRuntimeDelegate); err != nil {
		return nil, err
	}
	if api.close, err = lib.Func(SymbolClose); err != nil {
		return nil, err
	}
	return &api, nil
}

type nativeAPI struct {
	initialize  native.Func
	getDelegate native.Func
	close       native.Func
}

// statusFailure is reported when a string argument cannot be marshaled.
// It matches hostfxr's InvalidArgFailure.
const statusFailure int32 = -2147450751 // 0x80008081

func (a *nativeAPI) InitializeForRuntimeConfig(configPath string) (uintptr, int32) {
	path, err := charPtr(configPath)
	if err != nil {
		return 0, statusFailure
	}

	var handle uintptr
	r1, _, _ := purego.SyscallN(a.initialize.Addr,
		uintptr(path),
		0,
		uintptr(unsafe.Pointer(&handle)),
	)
	runtime.KeepAlive(path)
	return handle, int32(r1)
}

func (a *nativeAPI) GetRuntimeDelegate(handle uintptr, kind DelegateKind) (uintptr, int32) {
	var delegate uintptr
	r1, _, _ := purego.SyscallN(a.getDelegate.Addr,
		handle,
		uintptr(kind),
		uintptr(unsafe.Pointer(&delegate)),
	)
	return delegate, int32(r1)
}

func (a *nativeAPI) Close(handle uintptr) int32 {
	r1, _, _ := purego.SyscallN(a.close.Addr, handle)
	return int32(r1)
}

func (a *nativeAPI) LoadAssemblyAndGetFunctionPointer(delegate uintptr, assemblyPath, typeName, methodName string) (uintptr, int32) {
	if delegate == 0 {
		return 0, statusFailure
	}
	asm, err := charPtr(assemblyPath)
	if err != nil {
		return 0, statusFailure
	}
	typ, err := charPtr(typeName)
	if err != nil {
		return 0, statusFailure
	}
	method, err := charPtr(methodName)
	if err != nil {
		return 0, statusFailure
	}

	var fn uintptr
	r1, _, _ := purego.SyscallN(delegate,
		uintptr(asm),
		uintptr(typ),
		uintptr(method),
		unmanagedCallersOnly,
		0,
		uintptr(unsafe.Pointer(&fn)),
	)
	runtime.KeepAlive(asm)
	runtime.KeepAlive(typ)
	runtime.KeepAlive(method)
	return fn, int32(r1)
}

var _ API = (*nativeAPI)(nil)
