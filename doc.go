// Package clrhost hosts the .NET runtime inside a Go process.
//
// The library locates an installed runtime, loads its hosting library
// (hostfxr) without cgo, opens a runtime context for a managed assembly and
// resolves [UnmanagedCallersOnly] methods as native function pointers.
// Alongside it, a named shared memory arena lets the host and the managed
// side exchange fixed-layout records by index.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	clrhost/             Root package with the Memory interface
//	├── hosting/         Controller: hostfxr lifecycle and function resolution
//	├── discovery/       Runtime search over DOTNET_ROOT and PATH
//	├── version/         Runtime version parsing and ordering
//	├── native/          Shared library loading and typed native calls
//	├── shm/             Shared memory buffer, arena and typed pools
//	├── config/          Environment, YAML and validation
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Host an assembly and call into it:
//
//	ctrl := hosting.New(hosting.WithVersion(version.New(9, 0, 0)))
//	defer ctrl.Close(ctx)
//
//	if err := ctrl.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	asm := hosting.NewAssembly("Interop.Core", "./")
//	err := ctrl.WithContext(ctx, asm, func(a *hosting.Assembly) error {
//	    return ctrl.LoadAssemblyFunction(ctx, "PrintObjProperties", "Interop.Core.Examples.EntryPoint", a)
//	})
//
//	fn, _ := asm.Function("PrintObjProperties")
//	var printObj func(unsafe.Pointer)
//	if err := fn.Bind(&printObj); err != nil {
//	    log.Fatal(err)
//	}
//	printObj(unsafe.Pointer(&obj))
//
// # Shared Memory
//
// Records are placed in pools of an Arena, one pool per Tag:
//
//	arena := shm.NewArena("Controller")
//	_ = arena.Open(8192)
//	defer arena.Close()
//
//	objects := shm.MustType[CustomObject]("custom-object")
//	_ = objects.Write(arena, 0, obj)
//
// Pools start at offset 0 in creation order, so the first pool is what a
// managed reader indexing the raw mapping sees.
//
// # Thread Safety
//
// Controller and Arena are not safe for concurrent use. An Arena opened
// with shm.WithLocking serializes its own operations, including against
// other processes that lock the same arena.
//
// # Runtime Lifetime
//
// hostfxr loads at most one runtime per process and it cannot be unloaded.
// Resolved functions remain callable after the context that produced them
// is closed.
package clrhost
