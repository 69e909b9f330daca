package hosting

import (
	"github.com/wippyai/clr-host/native"
)

// Function is a managed method exposed as a native entry point.
// It stays callable for the life of the runtime, independent of the
// hosting context that resolved it.
type Function struct {
	native.Func
	Assembly string
	Type     string
}
