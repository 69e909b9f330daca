// Package layout computes the in-memory layout of Go types that can be
// shared byte-for-byte with native code.
//
// Only fixed-size value types are accepted: booleans, integers, floats,
// arrays of accepted types and structs made of accepted fields. Anything
// holding a Go pointer (pointers, slices, strings, maps, channels, funcs,
// interfaces) is rejected, since its bytes mean nothing to another process.
//
// # Layout Rules
//
//   - Primitives: size equals alignment (uint8=1, int32=4, float64=8, ...)
//   - Arrays: element size times length, element alignment
//   - Structs: fields laid out sequentially with padding for alignment,
//     total size rounded up to the largest field alignment
//
// These match the C layout used by the managed side's sequential structs.
//
// # Usage
//
//	info, err := layout.NewCalculator().Calculate(reflect.TypeFor[CustomObject]())
//	// info.Size, info.Align, info.FieldOffs
//
// This package is internal to shm.
package layout
