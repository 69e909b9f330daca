package native

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/clr-host/errors"
)

// DefaultSearchPath is used when Load is given an empty search path.
const DefaultSearchPath = "./"

// Opener is the platform layer used by Library.
// The default implementation wraps dlopen on Unix and LoadLibrary on Windows.
type Opener interface {
	Open(path string) (uintptr, error)
	Lookup(handle uintptr, symbol string) (uintptr, error)
	Close(handle uintptr) error
}

// Option configures a Library.
type Option func(*Library)

// WithOpener replaces the platform opener.
func WithOpener(o Opener) Option {
	return func(l *Library) {
		l.opener = o
	}
}

// WithFallbackDir overrides the system directory tried after searchPath.
// An empty dir disables the fallback.
func WithFallbackDir(dir string) Option {
	return func(l *Library) {
		l.fallbackDir = dir
	}
}

// Library is a native shared library and its resolved symbols.
//
// A Library is owned by whoever loaded it. Unload invalidates every
// address previously returned by Symbol. Library is not safe for
// concurrent use.
type Library struct {
	opener      Opener
	symbols     map[string]uintptr
	name        string
	searchPath  string
	path        string
	fallbackDir string
	handle      uintptr
}

// NewLibrary creates an unloaded library bound to the platform opener.
func NewLibrary(opts ...Option) *Library {
	l := &Library{
		opener:      platformOpener{},
		fallbackDir: systemLibraryDir(),
		symbols:     make(map[string]uintptr),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the logical library name, e.g. "hostfxr".
func (l *Library) Name() string { return l.name }

// SearchPath returns the directory passed to Load.
func (l *Library) SearchPath() string { return l.searchPath }

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// Handle returns the native handle, or 0 when unloaded.
func (l *Library) Handle() uintptr { return l.handle }

// Loaded reports whether a native handle is bound.
func (l *Library) Loaded() bool { return l.handle != 0 }

// FileName builds the platform file name for a library, e.g.
// libhostfxr.so, libhostfxr.dylib or hostfxr.dll.
func FileName(name string) string {
	return libraryPrefix + name + libraryExtension()
}

// Load opens the library name from searchPath, falling back once to the
// platform's system library directory. Loading an already loaded library
// is a no-op.
func (l *Library) Load(name, searchPath string) error {
	if l.handle != 0 {
		Logger().Debug("library already loaded", zap.String("library", l.name), zap.String("path", l.path))
		return nil
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseLoad, "library name is empty")
	}
	if searchPath == "" {
		searchPath = DefaultSearchPath
	}

	path := filepath.Join(searchPath, FileName(name))
	handle, err := l.opener.Open(path)
	if err != nil && l.fallbackDir != "" {
		Logger().Warn("library not found in search path, trying system directory",
			zap.String("library", name),
			zap.String("path", path),
			zap.String("fallback", l.fallbackDir),
			zap.Error(err))

		fallback := filepath.Join(l.fallbackDir, FileName(name))
		var fallbackErr error
		handle, fallbackErr = l.opener.Open(fallback)
		if fallbackErr == nil {
			path, err = fallback, nil
		}
	}
	if err != nil {
		return errors.Resource(errors.PhaseLoad, []string{name}, "open library "+path, err)
	}
	if handle == 0 {
		return errors.NotFound(errors.PhaseLoad, "library", path)
	}

	l.name = name
	l.searchPath = searchPath
	l.path = path
	l.handle = handle
	if l.symbols == nil {
		l.symbols = make(map[string]uintptr)
	}

	Logger().Debug("library loaded", zap.String("library", name), zap.String("path", path))
	return nil
}

// Symbol resolves an exported symbol. Resolved addresses are cached and
// never looked up twice.
func (l *Library) Symbol(name string) (uintptr, error) {
	if l.handle == 0 {
		return 0, errors.NotInitialized(errors.PhaseResolve, "library")
	}
	if addr, ok := l.symbols[name]; ok {
		return addr, nil
	}

	addr, err := l.opener.Lookup(l.handle, name)
	if err != nil {
		return 0, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(l.name, name).
			Detail("symbol %q not exported", name).
			Cause(err).
			Build()
	}
	if addr == 0 {
		return 0, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(l.name, name).
			Detail("symbol %q resolved to nil", name).
			Build()
	}

	l.symbols[name] = addr
	return addr, nil
}

// Func resolves name and wraps it as a callable function.
func (l *Library) Func(name string) (Func, error) {
	addr, err := l.Symbol(name)
	if err != nil {
		return Func{}, err
	}
	return Func{Name: name, Addr: addr}, nil
}

// Unload releases the native handle and clears every cached symbol.
// The library state is reset even if the platform close fails.
func (l *Library) Unload() error {
	if l.handle == 0 {
		return errors.NotInitialized(errors.PhaseLoad, "library")
	}

	err := l.opener.Close(l.handle)
	name := l.name

	l.name = ""
	l.searchPath = ""
	l.path = ""
	l.handle = 0
	clear(l.symbols)

	if err != nil {
		Logger().Warn("library close reported an error", zap.String("library", name), zap.Error(err))
		return errors.Resource(errors.PhaseLoad, []string{name}, "close library", err)
	}
	return nil
}
