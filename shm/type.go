package shm

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/wippyai/clr-host/errors"
	"github.com/wippyai/clr-host/shm/internal/layout"
)

var (
	calcMu sync.Mutex
	calc   = layout.NewCalculator()
)

func calculate(t reflect.Type) (layout.Info, error) {
	calcMu.Lock()
	defer calcMu.Unlock()
	return calc.Calculate(t)
}

// Type gives typed access to the pool of T values tagged tag.
//
// T must be a fixed-size value type whose bytes can be shared with
// native code; see NewType.
type Type[T any] struct {
	info layout.Info
	tag  Tag
	size uint32
}

// NewType validates T and binds it to tag. T may only contain booleans,
// numbers, arrays and structs of those.
func NewType[T any](tag Tag) (*Type[T], error) {
	if tag == "" {
		return nil, errors.InvalidInput(errors.PhaseMemory, "pool tag is empty")
	}

	rt := reflect.TypeFor[T]()
	info, err := calculate(rt)
	if err != nil {
		return nil, errors.New(errors.PhaseMemory, errors.KindTypeMismatch).
			Path(string(tag)).
			Detail("%s cannot be placed in shared memory", rt).
			Cause(err).
			Build()
	}
	if uintptr(info.Size) != rt.Size() || info.Size == 0 {
		return nil, errors.TypeMismatch(errors.PhaseMemory, []string{string(tag)},
			"type "+rt.String()+" has no stable non-empty layout")
	}

	return &Type[T]{info: info, tag: tag, size: info.Size}, nil
}

// MustType is NewType for package-level declarations; it panics on error.
func MustType[T any](tag Tag) *Type[T] {
	t, err := NewType[T](tag)
	if err != nil {
		panic(err)
	}
	return t
}

// Tag returns the pool tag of T.
func (t *Type[T]) Tag() Tag { return t.tag }

// Size returns sizeof(T), the element size of its pool.
func (t *Type[T]) Size() uint32 { return t.size }

// Align returns the natural alignment of T.
func (t *Type[T]) Align() uint32 { return t.info.Align }

// Offset returns the byte offset of a top-level field, if T is a struct.
func (t *Type[T]) Offset(field string) (uint32, bool) {
	off, ok := t.info.FieldOffs[field]
	return off, ok
}

// Pool returns T's block in a, creating it on first use.
func (t *Type[T]) Pool(a *Arena) (Block, error) {
	return a.Pool(t.tag, t.size)
}

// Read copies element index out of shared memory.
func (t *Type[T]) Read(a *Arena, index uint32) (T, error) {
	var v T
	if err := a.ReadElement(t.tag, index, t.bytes(&v)); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Write copies v into element index. Out-of-range indexes leave memory
// untouched.
func (t *Type[T]) Write(a *Arena, index uint32, v T) error {
	return a.WriteElement(t.tag, index, t.bytes(&v))
}

func (t *Type[T]) bytes(v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), t.size)
}
