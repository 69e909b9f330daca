package hosting

import (
	"slices"

	"github.com/wippyai/clr-host/errors"
)

const (
	runtimeConfigSuffix = ".runtimeconfig.json"
	assemblySuffix      = ".dll"
)

// Assembly is a managed assembly and the functions resolved from it.
type Assembly struct {
	functions map[string]*Function
	// Name is the assembly name without extension, e.g. "Interop.Core".
	Name string
	// Path is prepended verbatim to file names, so it normally ends with a separator.
	Path string
}

// NewAssembly creates an assembly with no resolved functions.
// An empty path means the working directory.
func NewAssembly(name, path string) *Assembly {
	if path == "" {
		path = "./"
	}
	return &Assembly{
		Name:      name,
		Path:      path,
		functions: make(map[string]*Function),
	}
}

// RuntimeConfigPath returns <Path><Name>.runtimeconfig.json.
func (a *Assembly) RuntimeConfigPath() string {
	return a.file(runtimeConfigSuffix)
}

// DLLPath returns <Path><Name>.dll.
func (a *Assembly) DLLPath() string {
	return a.file(assemblySuffix)
}

// QualifiedType returns the assembly-qualified name of typeName.
func (a *Assembly) QualifiedType(typeName string) string {
	return typeName + ", " + a.Name
}

func (a *Assembly) file(suffix string) string {
	return a.Path + a.Name + suffix
}

// Function returns a previously resolved function.
func (a *Assembly) Function(name string) (*Function, bool) {
	f, ok := a.functions[name]
	return f, ok
}

// MustFunction returns a resolved function or a not-found error.
func (a *Assembly) MustFunction(name string) (*Function, error) {
	if f, ok := a.functions[name]; ok {
		return f, nil
	}
	return nil, errors.NotFound(errors.PhaseResolve, "function", name)
}

// Functions lists resolved function names in sorted order.
func (a *Assembly) Functions() []string {
	names := make([]string, 0, len(a.functions))
	for n := range a.functions {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (a *Assembly) store(f *Function) {
	if a.functions == nil {
		a.functions = make(map[string]*Function)
	}
	a.functions[f.Name] = f
}
