package layout

import (
	"errors"
	"reflect"
	"testing"
)

func TestCalculatePrimitives(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		typ   reflect.Type
		name  string
		size  uint32
		align uint32
	}{
		{reflect.TypeFor[bool](), "bool", 1, 1},
		{reflect.TypeFor[uint8](), "u8", 1, 1},
		{reflect.TypeFor[int8](), "s8", 1, 1},
		{reflect.TypeFor[uint16](), "u16", 2, 2},
		{reflect.TypeFor[int16](), "s16", 2, 2},
		{reflect.TypeFor[uint32](), "u32", 4, 4},
		{reflect.TypeFor[int32](), "s32", 4, 4},
		{reflect.TypeFor[float32](), "f32", 4, 4},
		{reflect.TypeFor[float64](), "f64", 8, 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := c.Calculate(tc.typ)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestCalculateStruct(t *testing.T) {
	c := NewCalculator()

	t.Run("empty", func(t *testing.T) {
		info, err := c.Calculate(reflect.TypeFor[struct{}]())
		if err != nil {
			t.Fatal(err)
		}
		if info.Size != 0 {
			t.Errorf("size: got %d, want 0", info.Size)
		}
	})

	t.Run("padding", func(t *testing.T) {
		type padded struct {
			A uint8
			B uint32
			C uint16
		}
		info, err := c.Calculate(reflect.TypeFor[padded]())
		if err != nil {
			t.Fatal(err)
		}
		if info.Size != 12 || info.Align != 4 {
			t.Errorf("got size %d align %d, want 12/4", info.Size, info.Align)
		}
		if info.FieldOffs["B"] != 4 || info.FieldOffs["C"] != 8 {
			t.Errorf("offsets: %v", info.FieldOffs)
		}
	})

	t.Run("text_and_double", func(t *testing.T) {
		type object struct {
			Text   [256]byte
			Double float64
		}
		info, err := c.Calculate(reflect.TypeFor[object]())
		if err != nil {
			t.Fatal(err)
		}
		if info.Size != 264 || info.Align != 8 {
			t.Errorf("got size %d align %d, want 264/8", info.Size, info.Align)
		}
		if info.FieldOffs["Double"] != 256 {
			t.Errorf("Double offset: got %d, want 256", info.FieldOffs["Double"])
		}
	})

	t.Run("matches_go_layout", func(t *testing.T) {
		type nested struct {
			X [3]int16
			Y struct {
				A bool
				B int64
			}
			Z float32
		}
		typ := reflect.TypeFor[nested]()
		info, err := c.Calculate(typ)
		if err != nil {
			t.Fatal(err)
		}
		if uintptr(info.Size) != typ.Size() {
			t.Errorf("size: got %d, reflect says %d", info.Size, typ.Size())
		}
		if uintptr(info.Align) != uintptr(typ.Align()) {
			t.Errorf("align: got %d, reflect says %d", info.Align, typ.Align())
		}
	})
}

func TestCalculateRejects(t *testing.T) {
	c := NewCalculator()

	type withString struct {
		N int32
		S string
	}
	type nestedSlice struct {
		Inner struct {
			Items []int32
		}
	}

	tests := []struct {
		typ   reflect.Type
		name  string
		field string
	}{
		{reflect.TypeFor[*int32](), "pointer", ""},
		{reflect.TypeFor[[]byte](), "slice", ""},
		{reflect.TypeFor[string](), "string", ""},
		{reflect.TypeFor[map[int]int](), "map", ""},
		{reflect.TypeFor[chan int](), "chan", ""},
		{reflect.TypeFor[func()](), "func", ""},
		{reflect.TypeFor[any](), "interface", ""},
		{reflect.TypeFor[withString](), "struct_field", "S"},
		{reflect.TypeFor[nestedSlice](), "nested_field", "Inner.Items"},
		{reflect.TypeFor[[2]*int](), "array_of_pointers", "[]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Calculate(tc.typ)
			var ue *UnsupportedError
			if !errors.As(err, &ue) {
				t.Fatalf("expected UnsupportedError, got %v", err)
			}
			if ue.Field != tc.field {
				t.Errorf("field: got %q, want %q", ue.Field, tc.field)
			}
		})
	}
}

func TestCalculateCache(t *testing.T) {
	c := NewCalculator()
	typ := reflect.TypeFor[[4]uint64]()

	first, err := c.Calculate(typ)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.cache[typ]; !ok {
		t.Fatal("result not cached")
	}
	second, _ := c.Calculate(typ)
	if first.Size != second.Size || first.Size != 32 {
		t.Errorf("sizes: %d, %d", first.Size, second.Size)
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ offset, align, want uint32 }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{8184, 8, 8184},
		{13, 4, 16},
		{5, 0, 5},
	}
	for _, tc := range tests {
		if got := AlignTo(tc.offset, tc.align); got != tc.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tc.offset, tc.align, got, tc.want)
		}
	}
}
