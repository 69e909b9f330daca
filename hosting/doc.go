// Package hosting runs a managed runtime inside the current process through
// the hostfxr hosting API.
//
// A Controller walks a small state machine:
//
//	Uninitialized --Init--> Ready --OpenContext--> ContextOpen --CloseContext--> Ready
//
// Init locates hostfxr with package discovery, loads it with package native
// and binds hostfxr_initialize_for_runtime_config, hostfxr_get_runtime_delegate
// and hostfxr_close. A failed Init is final for that Controller.
//
// Usage:
//
//	ctrl := hosting.New(hosting.WithVersion(version.New(9, 0, 0)))
//	defer ctrl.Close(ctx)
//
//	if err := ctrl.Init(ctx); err != nil {
//	    return err
//	}
//
//	asm := hosting.NewAssembly("Interop.Core", "./")
//	err := ctrl.WithContext(ctx, asm, func(a *hosting.Assembly) error {
//	    return ctrl.LoadAssemblyFunction(ctx, "PrintObject", "Interop.Core.Examples.EntryPoint", a)
//	})
//
//	fn, _ := asm.Function("PrintObject")
//	var printObject func(unsafe.Pointer)
//	_ = fn.Bind(&printObject)
//
// Resolved functions outlive the context that produced them; they remain
// valid until the process exits or the Controller is closed.
package hosting
