package layout

import (
	"fmt"
	"reflect"
)

// Info describes the layout of a type.
type Info struct {
	FieldOffs map[string]uint32
	Size      uint32
	Align     uint32
}

// AlignTo rounds offset up to a multiple of align (a power of two).
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// UnsupportedError reports a type that cannot live in shared memory.
type UnsupportedError struct {
	Type reflect.Type
	// Field is the dotted path to the offending field, empty for the root.
	Field string
}

func (e *UnsupportedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("type %s is not fixed-size", e.Type)
	}
	return fmt.Sprintf("field %s of kind %s is not fixed-size", e.Field, e.Type.Kind())
}

type Calculator struct {
	cache map[reflect.Type]Info
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[reflect.Type]Info),
	}
}

func (c *Calculator) Calculate(t reflect.Type) (Info, error) {
	return c.calculate(t, "")
}

func (c *Calculator) calculate(t reflect.Type, field string) (Info, error) {
	if cached, ok := c.cache[t]; ok {
		return cached, nil
	}

	var info Info
	var err error

	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		info = Info{Size: 1, Align: 1}
	case reflect.Int16, reflect.Uint16:
		info = Info{Size: 2, Align: 2}
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		info = Info{Size: 4, Align: 4}
	case reflect.Int64, reflect.Uint64, reflect.Float64, reflect.Complex64:
		info = Info{Size: uint32(t.Size()), Align: uint32(t.Align())}
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		info = Info{Size: uint32(t.Size()), Align: uint32(t.Align())}
	case reflect.Complex128:
		info = Info{Size: 16, Align: uint32(t.Align())}
	case reflect.Array:
		info, err = c.calculateArray(t, field)
	case reflect.Struct:
		info, err = c.calculateStruct(t, field)
	default:
		return Info{}, &UnsupportedError{Type: t, Field: field}
	}
	if err != nil {
		return Info{}, err
	}

	c.cache[t] = info
	return info, nil
}

func (c *Calculator) calculateArray(t reflect.Type, field string) (Info, error) {
	elem, err := c.calculate(t.Elem(), field+"[]")
	if err != nil {
		return Info{}, err
	}
	return Info{
		Size:  elem.Size * uint32(t.Len()),
		Align: elem.Align,
	}, nil
}

func (c *Calculator) calculateStruct(t reflect.Type, field string) (Info, error) {
	if t.NumField() == 0 {
		return Info{Size: 0, Align: 1}, nil
	}

	fieldOffs := make(map[string]uint32, t.NumField())
	maxAlign := uint32(1)
	offset := uint32(0)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := f.Name
		if field != "" {
			path = field + "." + f.Name
		}

		fieldLayout, err := c.calculate(f.Type, path)
		if err != nil {
			return Info{}, err
		}

		offset = AlignTo(offset, fieldLayout.Align)
		fieldOffs[f.Name] = offset

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		offset += fieldLayout.Size
	}

	totalSize := AlignTo(offset, maxAlign)

	return Info{
		Size:      totalSize,
		Align:     maxAlign,
		FieldOffs: fieldOffs,
	}, nil
}
