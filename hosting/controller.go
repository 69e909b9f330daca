package hosting

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/clr-host/discovery"
	"github.com/wippyai/clr-host/errors"
	"github.com/wippyai/clr-host/native"
	"github.com/wippyai/clr-host/version"
)

// State is the lifecycle position of a Controller.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateContextOpen
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateContextOpen:
		return "context-open"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Context is an open runtime context and its function-pointer delegate.
type Context struct {
	handle   uintptr
	delegate uintptr
}

func (c *Context) open() bool {
	return c.handle != 0 && c.delegate != 0
}

// Option configures a Controller.
type Option func(*Controller)

// WithVersion requests a specific runtime version. The zero Version
// selects the highest installed one.
func WithVersion(v version.Version) Option {
	return func(c *Controller) {
		c.target = v
	}
}

// WithFinder replaces the environment-based runtime finder.
func WithFinder(f *discovery.Finder) Option {
	return func(c *Controller) {
		c.finder = f
	}
}

// WithLibrary supplies the library used to load hostfxr.
func WithLibrary(lib *native.Library) Option {
	return func(c *Controller) {
		c.lib = lib
	}
}

// WithBinder replaces how hostfxr exports are bound after loading.
func WithBinder(b Binder) Option {
	return func(c *Controller) {
		c.bind = b
	}
}

// Controller hosts a managed runtime in the current process.
//
// Init locates and loads hostfxr, OpenContext initializes the runtime from
// an assembly's runtimeconfig.json, and LoadAssemblyFunction resolves
// [UnmanagedCallersOnly] methods as native function pointers. A
// Controller is not safe for concurrent use.
type Controller struct {
	initErr error
	finder  *discovery.Finder
	lib     *native.Library
	bind    Binder
	api     API
	current *Context
	runtime discovery.Result
	target  version.Version
	closed  bool
}

// New creates an uninitialized controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		bind: BindHostFXR,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.finder == nil {
		c.finder = discovery.FromEnvironment()
	}
	if c.lib == nil {
		c.lib = native.NewLibrary()
	}
	return c
}

// State reports the controller's lifecycle state.
func (c *Controller) State() State {
	switch {
	case c.closed:
		return StateClosed
	case c.initErr != nil:
		return StateFailed
	case c.api == nil:
		return StateUninitialized
	case c.current != nil && c.current.open():
		return StateContextOpen
	default:
		return StateReady
	}
}

// Runtime returns the hosting library located by Init.
func (c *Controller) Runtime() discovery.Result {
	return c.runtime
}

// Init locates and loads hostfxr and binds its exports. A failure is
// terminal: later calls return the same error without retrying.
func (c *Controller) Init(ctx context.Context) error {
	if c.closed {
		return errors.InvalidState(errors.PhaseLoad, "controller is closed")
	}
	if c.initErr != nil {
		return c.initErr
	}
	if c.api != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Canceled(errors.PhaseLoad, err)
	}

	c.initErr = c.init()
	return c.initErr
}

func (c *Controller) init() error {
	res, err := c.finder.Find(c.target)
	if err != nil {
		Logger().Error("runtime not found", zap.Strings("roots", c.finder.RootList()), zap.Error(err))
		return err
	}

	if err := c.lib.Load(HostFXR, res.Dir); err != nil {
		Logger().Error("failed to load hosting library", zap.String("dir", res.Dir), zap.Error(err))
		return err
	}

	api, err := c.bind(c.lib)
	if err != nil {
		Logger().Error("failed to resolve hosting exports", zap.String("path", c.lib.Path()), zap.Error(err))
		if uerr := c.lib.Unload(); uerr != nil {
			Logger().Warn("unload after failed bind", zap.Error(uerr))
		}
		return err
	}

	c.api = api
	c.runtime = res
	Logger().Info("hosting library ready",
		zap.Stringer("version", res.Version),
		zap.String("path", c.lib.Path()))
	return nil
}

// OpenContext initializes the runtime for assembly. Opening while a
// context is already open succeeds without native calls.
func (c *Controller) OpenContext(ctx context.Context, assembly *Assembly) error {
	if assembly == nil {
		return errors.InvalidInput(errors.PhaseContext, "assembly is nil")
	}
	if c.current != nil {
		if c.current.open() {
			Logger().Debug("hosting context already open", zap.String("assembly", assembly.Name))
			return nil
		}
		return errors.InvalidState(errors.PhaseContext, "hosting context is partially initialized; call CloseContext first")
	}
	if c.api == nil {
		return errors.NotInitialized(errors.PhaseContext, "hosting library")
	}
	if err := ctx.Err(); err != nil {
		return errors.Canceled(errors.PhaseContext, err)
	}

	configPath := assembly.RuntimeConfigPath()
	handle, status := c.api.InitializeForRuntimeConfig(configPath)
	if status != 0 || handle == 0 {
		c.discard(handle)
		Logger().Error("runtime initialization failed",
			zap.String("config", configPath),
			zap.Int32("status", status))
		return c.statusError(SymbolInitializeForRuntimeConfig, status, assembly.Name, configPath)
	}

	delegate, status := c.api.GetRuntimeDelegate(handle, DelegateLoadAssemblyAndGetFunctionPointer)
	if status != 0 || delegate == 0 {
		c.discard(handle)
		Logger().Error("runtime delegate unavailable", zap.Int32("status", status))
		return c.statusError(SymbolGetRuntimeDelegate, status, assembly.Name, configPath)
	}

	c.current = &Context{handle: handle, delegate: delegate}
	Logger().Debug("hosting context open", zap.String("config", configPath))
	return nil
}

func (c *Controller) statusError(call string, status int32, path ...string) error {
	if status == 0 {
		return errors.New(errors.PhaseContext, errors.KindNotFound).
			Path(path...).
			Detail("%s returned a nil handle", call).
			Build()
	}
	err := errors.Status(errors.PhaseContext, call, status)
	err.Path = path
	return err
}

// discard closes a handle from a failed open, ignoring the result.
func (c *Controller) discard(handle uintptr) {
	if handle == 0 {
		return
	}
	if status := c.api.Close(handle); status != 0 {
		Logger().Debug("close of failed context", zap.Int32("status", status))
	}
}

// LoadAssemblyFunction resolves functionName on typeName in assembly and
// caches it there. Resolving a cached name makes no native call.
func (c *Controller) LoadAssemblyFunction(ctx context.Context, functionName, typeName string, assembly *Assembly) error {
	switch {
	case assembly == nil:
		return errors.InvalidInput(errors.PhaseResolve, "assembly is nil")
	case functionName == "":
		return errors.InvalidInput(errors.PhaseResolve, "function name is empty")
	case typeName == "":
		return errors.InvalidInput(errors.PhaseResolve, "type name is empty")
	}

	if _, ok := assembly.Function(functionName); ok {
		return nil
	}
	if c.current == nil || !c.current.open() {
		return errors.NotInitialized(errors.PhaseResolve, "hosting context")
	}
	if err := ctx.Err(); err != nil {
		return errors.Canceled(errors.PhaseResolve, err)
	}

	qualified := assembly.QualifiedType(typeName)
	addr, status := c.api.LoadAssemblyAndGetFunctionPointer(c.current.delegate, assembly.DLLPath(), qualified, functionName)
	if status != 0 {
		Logger().Error("function resolution failed",
			zap.String("type", qualified),
			zap.String("function", functionName),
			zap.Int32("status", status))
		err := errors.Status(errors.PhaseResolve, "load_assembly_and_get_function_pointer", status)
		err.Path = []string{assembly.Name, typeName, functionName}
		return err
	}
	if addr == 0 {
		return errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(assembly.Name, typeName, functionName).
			Detail("function %q resolved to nil", functionName).
			Build()
	}

	assembly.store(&Function{
		Func:     native.Func{Name: functionName, Addr: addr},
		Assembly: assembly.Name,
		Type:     typeName,
	})
	Logger().Debug("function resolved", zap.String("type", qualified), zap.String("function", functionName))
	return nil
}

// CloseContext closes the open context. The context is discarded whatever
// hostfxr_close reports; a non-zero status is only logged.
func (c *Controller) CloseContext(_ context.Context) error {
	if c.current == nil {
		return nil
	}

	ctxt := c.current
	c.current = nil
	if c.api == nil || ctxt.handle == 0 {
		return nil
	}
	if status := c.api.Close(ctxt.handle); status != 0 {
		Logger().Warn("hostfxr_close reported failure", zap.Int32("status", status))
	}
	return nil
}

// WithContext opens a context for assembly, runs fn and always closes the
// context afterwards.
func (c *Controller) WithContext(ctx context.Context, assembly *Assembly, fn func(*Assembly) error) error {
	if err := c.OpenContext(ctx, assembly); err != nil {
		return err
	}
	defer func() { _ = c.CloseContext(ctx) }()
	return fn(assembly)
}

// Close releases the open context, if any, then unloads the hosting
// library. Resolved functions must not be called afterwards.
func (c *Controller) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	_ = c.CloseContext(ctx)
	c.api = nil
	c.closed = true

	if !c.lib.Loaded() {
		return nil
	}
	if err := c.lib.Unload(); err != nil {
		return err
	}
	Logger().Debug("hosting library unloaded")
	return nil
}
