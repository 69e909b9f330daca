// Package errors provides structured error types for the clr-host module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the resource path (library, assembly, mapping name),
// the offending value (a native status code, an index) and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMemory, errors.KindAllocation).
//		Path("Controller", "custom-object").
//		Detail("pool does not fit").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseResolve, "symbol", "hostfxr_close")
//	err := errors.OutOfBounds(errors.PhaseMemory, path, 40, 31)
//
// Kind-only sentinels (ErrNotFound, ErrOutOfBounds, ...) match any phase:
//
//	if errors.Is(err, clrerrors.ErrNotFound) { ... }
package errors
