package version

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Version
	}{
		{"9.0.0", New(9, 0, 0)},
		{"8.0.11", New(8, 0, 11)},
		{"10.1", Version{Primary: Triple{Major: 10, Minor: 1}}},
		{"9..0.1", New(9, 0, 1)},
		{"9.0.0.7", New(9, 0, 0)},
		{
			"9.0.0-rc.1.24431.7",
			Version{Primary: Triple{9, 0, 0}, Kind: ReleaseCandidate, Svn: Triple{1, 24431, 7}},
		},
		{
			"9.0.0-preview.5.0.0",
			Version{Primary: Triple{9, 0, 0}, Kind: Preview, Svn: Triple{5, 0, 0}},
		},
		{"", Version{}},
		{"latest", Version{}},
		{"9.x.0", Version{}},
		{"70000.0.0", Version{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input)
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"9.0.0",
		"8.0.11",
		"9.0.0-rc.1.24431.7",
		"9.0.0-preview.5.0.0",
		"10.0.0-preview.7.25380.108",
	}

	for _, in := range inputs {
		v := Parse(in)
		if v.IsEmpty() {
			t.Fatalf("Parse(%q) returned empty version", in)
		}
		if got := Parse(v.String()); got != v {
			t.Errorf("Parse(Format(%q)) = %+v, want %+v", in, got, v)
		}
		if v.String() != in {
			t.Errorf("String() = %q, want %q", v.String(), in)
		}
	}
}

func TestFormat_TwoPass(t *testing.T) {
	v := Parse("9.0.0-rc.1.24431.7")

	n := v.Format(nil)
	if n != len("9.0.0-rc.1.24431.7") {
		t.Fatalf("Format(nil) = %d, want %d", n, len("9.0.0-rc.1.24431.7"))
	}

	short := make([]byte, n-1)
	if got := v.Format(short); got != n {
		t.Errorf("Format(short) = %d, want %d", got, n)
	}
	for _, c := range short {
		if c != 0 {
			t.Fatal("Format wrote into a short buffer")
		}
	}

	buf := make([]byte, n+1)
	if got := v.Format(buf); got != n {
		t.Errorf("Format(buf) = %d, want %d", got, n)
	}
	if string(buf[:n]) != "9.0.0-rc.1.24431.7" {
		t.Errorf("Format wrote %q", buf[:n])
	}
	if buf[n] != 0 {
		t.Error("Format must leave the terminator slot untouched")
	}
}

func TestCompare_Ordering(t *testing.T) {
	ordered := []string{
		"8.9.9",
		"9.0.0-preview.5.0.0",
		"9.0.0-preview.6.0.0",
		"9.0.0-rc.1.0.0",
		"9.0.0-rc.2.0.0",
		"9.0.0",
		"9.0.1",
		"10.0.0-preview.1.0.0",
	}

	for i := range ordered {
		for j := range ordered {
			a, b := Parse(ordered[i]), Parse(ordered[j])
			got := Compare(a, b)
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestCompare_Transitive(t *testing.T) {
	a := Parse("9.0.0")
	b := Parse("9.0.0-rc.1.0.0")
	c := Parse("9.0.0-preview.5.0.0")
	d := Parse("8.9.9")

	if !a.Greater(b) || !b.Greater(c) || !c.Greater(d) {
		t.Fatal("expected 9.0.0 > rc.1 > preview.5 > 8.9.9")
	}
	if !a.Greater(c) || !a.Greater(d) || !b.Greater(d) {
		t.Fatal("ordering is not transitive")
	}
	if !d.Less(a) {
		t.Fatal("Less disagrees with Greater")
	}
}

func TestEqual(t *testing.T) {
	if !Parse("9.0.0").Equal(New(9, 0, 0)) {
		t.Error("9.0.0 should equal New(9,0,0)")
	}
	if Parse("9.0.0").Equal(Parse("9.0.0-rc.1.0.0")) {
		t.Error("release should not equal rc")
	}
	if Parse("9.0.0-rc.1.0.0").Equal(Parse("9.0.0-rc.1.0.1")) {
		t.Error("svn must participate in equality")
	}
}

func TestIsEmpty(t *testing.T) {
	if !(Version{}).IsEmpty() {
		t.Error("zero version should be empty")
	}
	if Parse("0.0.0-rc.0.0.0").IsEmpty() {
		t.Error("rc kind is not empty")
	}
	if New(0, 0, 1).IsEmpty() {
		t.Error("0.0.1 is not empty")
	}
}
