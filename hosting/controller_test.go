package hosting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/clr-host/discovery"
	clrerrors "github.com/wippyai/clr-host/errors"
	"github.com/wippyai/clr-host/native"
	"github.com/wippyai/clr-host/version"
)

type opener struct {
	files   map[string]uintptr
	symbols map[string]uintptr
	closed  int
}

func (o *opener) Open(path string) (uintptr, error) {
	if h, ok := o.files[path]; ok {
		return h, nil
	}
	return 0, errors.New("no such file")
}

func (o *opener) Lookup(_ uintptr, symbol string) (uintptr, error) {
	if a, ok := o.symbols[symbol]; ok {
		return a, nil
	}
	return 0, errors.New("undefined symbol")
}

func (o *opener) Close(uintptr) error {
	o.closed++
	return nil
}

type fakeAPI struct {
	initStatus     int32
	initHandle     uintptr
	delegateStatus int32
	delegate       uintptr
	closeStatus    int32
	loadStatus     int32
	loadAddr       uintptr

	initCalls     []string
	delegateCalls []DelegateKind
	closeCalls    []uintptr
	loadCalls     [][3]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		initHandle: 0xA0,
		delegate:   0xB0,
		loadAddr:   0xC0,
	}
}

func (f *fakeAPI) InitializeForRuntimeConfig(configPath string) (uintptr, int32) {
	f.initCalls = append(f.initCalls, configPath)
	return f.initHandle, f.initStatus
}

func (f *fakeAPI) GetRuntimeDelegate(_ uintptr, kind DelegateKind) (uintptr, int32) {
	f.delegateCalls = append(f.delegateCalls, kind)
	return f.delegate, f.delegateStatus
}

func (f *fakeAPI) Close(handle uintptr) int32 {
	f.closeCalls = append(f.closeCalls, handle)
	return f.closeStatus
}

func (f *fakeAPI) LoadAssemblyAndGetFunctionPointer(_ uintptr, assemblyPath, typeName, methodName string) (uintptr, int32) {
	f.loadCalls = append(f.loadCalls, [3]string{assemblyPath, typeName, methodName})
	return f.loadAddr, f.loadStatus
}

func (f *fakeAPI) nativeCalls() int {
	return len(f.initCalls) + len(f.delegateCalls) + len(f.closeCalls) + len(f.loadCalls)
}

// installRuntime creates <root>/host/fxr/<v>/ and registers the library
// file with the opener.
func installRuntime(t *testing.T, op *opener, v string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "host", "fxr", v)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	op.files[filepath.Join(dir, native.FileName(HostFXR))] = 0x1000
	return root
}

func newTestController(t *testing.T, api *fakeAPI) (*Controller, *opener) {
	t.Helper()
	op := &opener{
		files: make(map[string]uintptr),
		symbols: map[string]uintptr{
			SymbolInitializeForRuntimeConfig: 0x10,
			SymbolGetRuntimeDelegate:         0x20,
			SymbolClose:                      0x30,
		},
	}
	root := installRuntime(t, op, "9.0.0")

	ctrl := New(
		WithFinder(discovery.NewFinder(root)),
		WithLibrary(native.NewLibrary(native.WithOpener(op), native.WithFallbackDir(""))),
		WithBinder(func(lib *native.Library) (API, error) {
			for _, s := range []string{SymbolInitializeForRuntimeConfig, SymbolGetRuntimeDelegate, SymbolClose} {
				if _, err := lib.Symbol(s); err != nil {
					return nil, err
				}
			}
			return api, nil
		}),
	)
	return ctrl, op
}

func TestController_Init(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController(t, newFakeAPI())

	assert.Equal(t, StateUninitialized, ctrl.State())
	require.NoError(t, ctrl.Init(ctx))
	assert.Equal(t, StateReady, ctrl.State())
	assert.Equal(t, version.New(9, 0, 0), ctrl.Runtime().Version)

	require.NoError(t, ctrl.Init(ctx), "second Init is a no-op")
}

func TestController_InitFailureIsTerminal(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	ctrl, op := newTestController(t, api)
	delete(op.symbols, SymbolClose)

	err := ctrl.Init(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, clrerrors.ErrNotFound)
	assert.Equal(t, StateFailed, ctrl.State())
	assert.Equal(t, 1, op.closed, "library released after failed bind")

	// Restoring the symbol does not allow a retry.
	op.symbols[SymbolClose] = 0x30
	assert.Same(t, err, ctrl.Init(ctx))

	err = ctrl.OpenContext(ctx, NewAssembly("Interop.Core", "./"))
	assert.ErrorIs(t, err, clrerrors.ErrNotInitialized)
	assert.Zero(t, api.nativeCalls())
}

func TestController_InitRuntimeNotFound(t *testing.T) {
	op := &opener{files: map[string]uintptr{}}
	root := installRuntime(t, op, "8.0.0")
	ctrl := New(
		WithVersion(version.New(9, 0, 0)),
		WithFinder(discovery.NewFinder(root)),
		WithLibrary(native.NewLibrary(native.WithOpener(op), native.WithFallbackDir(""))),
	)

	err := ctrl.Init(context.Background())
	assert.ErrorIs(t, err, clrerrors.ErrNotFound)
	assert.Equal(t, StateFailed, ctrl.State())
}

func TestController_InitCanceled(t *testing.T) {
	ctrl, _ := newTestController(t, newFakeAPI())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ctrl.Init(ctx)
	var e *clrerrors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, clrerrors.KindCanceled, e.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestController_OpenContext(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	ctrl, _ := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))

	asm := NewAssembly("Interop.Core", "/srv/app/")
	require.NoError(t, ctrl.OpenContext(ctx, asm))
	assert.Equal(t, StateContextOpen, ctrl.State())
	assert.Equal(t, []string{"/srv/app/Interop.Core.runtimeconfig.json"}, api.initCalls)
	assert.Equal(t, []DelegateKind{DelegateLoadAssemblyAndGetFunctionPointer}, api.delegateCalls)

	// Already open: no further native calls.
	require.NoError(t, ctrl.OpenContext(ctx, asm))
	assert.Len(t, api.initCalls, 1)
}

func TestController_OpenContextRequiresInit(t *testing.T) {
	api := newFakeAPI()
	ctrl, _ := newTestController(t, api)

	err := ctrl.OpenContext(context.Background(), NewAssembly("Interop.Core", "./"))
	assert.ErrorIs(t, err, clrerrors.ErrNotInitialized)
	assert.Zero(t, api.nativeCalls())
}

func TestController_OpenContextNilAssembly(t *testing.T) {
	ctrl, _ := newTestController(t, newFakeAPI())
	err := ctrl.OpenContext(context.Background(), nil)
	assert.ErrorIs(t, err, clrerrors.ErrInvalidInput)
}

func TestController_OpenContextHalfOpen(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	ctrl, _ := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))

	ctrl.current = &Context{handle: 0xA0}
	err := ctrl.OpenContext(ctx, NewAssembly("Interop.Core", "./"))
	assert.ErrorIs(t, err, clrerrors.ErrInvalidState)
	assert.Empty(t, api.initCalls)

	require.NoError(t, ctrl.CloseContext(ctx))
	require.NoError(t, ctrl.OpenContext(ctx, NewAssembly("Interop.Core", "./")))
}

func TestController_OpenContextConfigFailure(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.initStatus = -2147450730 // 0x80008096, invalid runtimeconfig
	ctrl, _ := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))

	err := ctrl.OpenContext(ctx, NewAssembly("Interop.Core", "./"))
	require.Error(t, err)
	code, ok := clrerrors.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, api.initStatus, code)
	assert.Contains(t, err.Error(), "0x80008096")

	assert.Equal(t, []uintptr{0xA0}, api.closeCalls, "returned handle closed")
	assert.Equal(t, StateReady, ctrl.State(), "context discarded")
	assert.Empty(t, api.delegateCalls)
}

func TestController_OpenContextDelegateFailure(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.delegateStatus = -2147450733
	ctrl, _ := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))

	err := ctrl.OpenContext(ctx, NewAssembly("Interop.Core", "./"))
	require.Error(t, err)
	assert.Equal(t, []uintptr{0xA0}, api.closeCalls)
	assert.Equal(t, StateReady, ctrl.State())

	err = ctrl.LoadAssemblyFunction(ctx, "PrintObject", "Interop.Core.Examples.EntryPoint", NewAssembly("Interop.Core", "./"))
	assert.ErrorIs(t, err, clrerrors.ErrNotInitialized)
}

func TestController_LoadAssemblyFunction(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	ctrl, _ := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))

	asm := NewAssembly("Interop.Core", "/srv/app/")
	require.NoError(t, ctrl.OpenContext(ctx, asm))

	const typ = "Interop.Core.Examples.EntryPoint"
	require.NoError(t, ctrl.LoadAssemblyFunction(ctx, "PrintObject", typ, asm))
	require.NoError(t, ctrl.LoadAssemblyFunction(ctx, "PrintObject", typ, asm))

	require.Len(t, api.loadCalls, 1, "second resolution served from cache")
	assert.Equal(t, [3]string{
		"/srv/app/Interop.Core.dll",
		"Interop.Core.Examples.EntryPoint, Interop.Core",
		"PrintObject",
	}, api.loadCalls[0])

	fn, ok := asm.Function("PrintObject")
	require.True(t, ok)
	assert.Equal(t, uintptr(0xC0), fn.Addr)
	assert.Equal(t, typ, fn.Type)
	assert.Equal(t, []string{"PrintObject"}, asm.Functions())

	// Cached functions survive closing the context.
	require.NoError(t, ctrl.CloseContext(ctx))
	require.NoError(t, ctrl.LoadAssemblyFunction(ctx, "PrintObject", typ, asm))
	assert.Len(t, api.loadCalls, 1)
}

func TestController_LoadAssemblyFunctionErrors(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	ctrl, _ := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))
	asm := NewAssembly("Interop.Core", "./")

	assert.ErrorIs(t, ctrl.LoadAssemblyFunction(ctx, "", "T", asm), clrerrors.ErrInvalidInput)
	assert.ErrorIs(t, ctrl.LoadAssemblyFunction(ctx, "F", "", asm), clrerrors.ErrInvalidInput)
	assert.ErrorIs(t, ctrl.LoadAssemblyFunction(ctx, "F", "T", nil), clrerrors.ErrInvalidInput)
	assert.ErrorIs(t, ctrl.LoadAssemblyFunction(ctx, "F", "T", asm), clrerrors.ErrNotInitialized)

	require.NoError(t, ctrl.OpenContext(ctx, asm))

	api.loadStatus = -2146233054
	err := ctrl.LoadAssemblyFunction(ctx, "Missing", "T", asm)
	_, ok := clrerrors.StatusCode(err)
	assert.True(t, ok)

	api.loadStatus = 0
	api.loadAddr = 0
	err = ctrl.LoadAssemblyFunction(ctx, "Nil", "T", asm)
	assert.ErrorIs(t, err, clrerrors.ErrNotFound)
	assert.Empty(t, asm.Functions())
}

func TestController_CloseContextWithoutOpen(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	ctrl, _ := newTestController(t, api)

	require.NoError(t, ctrl.CloseContext(ctx))
	require.NoError(t, ctrl.Init(ctx))
	require.NoError(t, ctrl.CloseContext(ctx))
	assert.Zero(t, api.nativeCalls())
}

func TestController_CloseContextIgnoresStatus(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.closeStatus = -1
	ctrl, _ := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))
	require.NoError(t, ctrl.OpenContext(ctx, NewAssembly("Interop.Core", "./")))

	require.NoError(t, ctrl.CloseContext(ctx))
	assert.Equal(t, StateReady, ctrl.State())
	assert.Equal(t, []uintptr{0xA0}, api.closeCalls)
}

func TestController_WithContext(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	ctrl, _ := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))

	boom := errors.New("boom")
	err := ctrl.WithContext(ctx, NewAssembly("Interop.Core", "./"), func(a *Assembly) error {
		assert.Equal(t, StateContextOpen, ctrl.State())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateReady, ctrl.State())
	assert.Len(t, api.closeCalls, 1)
}

func TestController_Close(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	ctrl, op := newTestController(t, api)
	require.NoError(t, ctrl.Init(ctx))
	require.NoError(t, ctrl.OpenContext(ctx, NewAssembly("Interop.Core", "./")))

	require.NoError(t, ctrl.Close(ctx))
	assert.Equal(t, []uintptr{0xA0}, api.closeCalls, "context closed before unload")
	assert.Equal(t, 1, op.closed)
	assert.Equal(t, StateClosed, ctrl.State())

	require.NoError(t, ctrl.Close(ctx))
	assert.Equal(t, 1, op.closed)
	assert.ErrorIs(t, ctrl.Init(ctx), clrerrors.ErrInvalidState)
}

func TestAssembly_Paths(t *testing.T) {
	asm := NewAssembly("Interop.Core", "")
	assert.Equal(t, "./Interop.Core.runtimeconfig.json", asm.RuntimeConfigPath())
	assert.Equal(t, "./Interop.Core.dll", asm.DLLPath())
	assert.Equal(t, "A.B, Interop.Core", asm.QualifiedType("A.B"))

	_, err := asm.MustFunction("nope")
	assert.ErrorIs(t, err, clrerrors.ErrNotFound)
}
