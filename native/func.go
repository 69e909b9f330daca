package native

import (
	"fmt"
	"reflect"

	"github.com/ebitengine/purego"

	"github.com/wippyai/clr-host/errors"
)

// Func is a resolved native entry point.
// The address stays valid only while the owning library (or runtime) is loaded.
type Func struct {
	Name string
	Addr uintptr
}

// Valid reports whether the function has a non-nil address.
func (f Func) Valid() bool {
	return f.Addr != 0
}

// Call invokes the function with integer/pointer sized arguments using the
// platform C calling convention and returns the first result register.
func (f Func) Call(args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(f.Addr, args...)
	return r1
}

// Bind fills fptr, a pointer to a Go func variable, with a typed wrapper
// around the native function. The signature is checked here rather than
// at call time; unsupported signatures are reported as errors.
//
//	var printObj func(obj unsafe.Pointer)
//	if err := fn.Bind(&printObj); err != nil { ... }
//	printObj(unsafe.Pointer(&payload))
func (f Func) Bind(fptr any) (err error) {
	if f.Addr == 0 {
		return errors.NotInitialized(errors.PhaseResolve, "function "+f.Name)
	}

	v := reflect.ValueOf(fptr)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Func {
		return errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
			Path(f.Name).
			Detail("Bind expects a non-nil pointer to a func, got %T", fptr).
			Build()
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseResolve, errors.KindUnsupported).
				Path(f.Name).
				Detail("cannot bind %s: %v", v.Elem().Type(), r).
				Cause(fmt.Errorf("%v", r)).
				Build()
		}
	}()

	purego.RegisterFunc(fptr, f.Addr)
	return nil
}
