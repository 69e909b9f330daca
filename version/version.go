package version

import (
	"strconv"
	"strings"
)

// Kind is the release channel of a runtime build.
type Kind uint16

const (
	Release Kind = iota
	Preview
	ReleaseCandidate
)

// finality ranks kinds for ordering: Release > ReleaseCandidate > Preview.
func (k Kind) finality() int {
	switch k {
	case Release:
		return 2
	case ReleaseCandidate:
		return 1
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case Release:
		return "release"
	case Preview:
		return "preview"
	case ReleaseCandidate:
		return "rc"
	default:
		return "unknown"
	}
}

const (
	previewMarker = "-preview"
	rcMarker      = "-rc"
)

// Triple is a major.minor.patch group.
type Triple struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Ordinal packs the triple into a single comparable value.
func (t Triple) Ordinal() uint64 {
	return uint64(t.Major)<<32 | uint64(t.Minor)<<16 | uint64(t.Patch)
}

func (t *Triple) set(field int, v uint16) {
	switch field {
	case 0:
		t.Major = v
	case 1:
		t.Minor = v
	case 2:
		t.Patch = v
	}
}

// Version identifies an installed runtime, e.g. 9.0.0 or 9.0.0-rc.1.24431.7.
// The zero Version is the wildcard "best available".
type Version struct {
	Primary Triple
	Kind    Kind
	// Svn orders pre-release iterations of the same primary version.
	// Only meaningful for Preview and ReleaseCandidate.
	Svn Triple
}

// New returns a release version.
func New(major, minor, patch uint16) Version {
	return Version{Primary: Triple{Major: major, Minor: minor, Patch: patch}}
}

// IsEmpty reports whether v is the wildcard version.
func (v Version) IsEmpty() bool {
	return v.Primary.Ordinal() == 0 && v.Kind == Release && v.Svn.Ordinal() == 0
}

// Parse reads a version string. Malformed input yields the zero Version.
func Parse(s string) Version {
	var v Version
	current := &v.Primary
	field := 0

	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			continue
		}

		marker := false
		if v.Kind == Release && current == &v.Primary {
			switch {
			case strings.Contains(seg, rcMarker):
				v.Kind = ReleaseCandidate
				marker = true
			case strings.Contains(seg, previewMarker):
				v.Kind = Preview
				marker = true
			}
			if marker {
				seg = seg[:strings.IndexByte(seg, '-')]
			}
		}

		if seg != "" {
			n, err := strconv.ParseUint(seg, 10, 16)
			if err != nil {
				return Version{}
			}
			if field < 3 {
				current.set(field, uint16(n))
			}
		}

		if marker {
			current = &v.Svn
			field = 0
			continue
		}
		field++
	}

	return v
}

// Compare returns -1, 0 or +1 ordering a against b.
func Compare(a, b Version) int {
	ao, bo := a.Primary.Ordinal(), b.Primary.Ordinal()
	switch {
	case ao > bo:
		return 1
	case ao < bo:
		return -1
	}

	switch af, bf := a.Kind.finality(), b.Kind.finality(); {
	case af > bf:
		return 1
	case af < bf:
		return -1
	}

	as, bs := a.Svn.Ordinal(), b.Svn.Ordinal()
	switch {
	case as > bs:
		return 1
	case as < bs:
		return -1
	}
	return 0
}

// Equal reports whether v and o denote the same version, svn included.
func (v Version) Equal(o Version) bool { return Compare(v, o) == 0 }

// Less reports whether v orders before o.
func (v Version) Less(o Version) bool { return Compare(v, o) < 0 }

// Greater reports whether v orders after o.
func (v Version) Greater(o Version) bool { return Compare(v, o) > 0 }

// Format writes the canonical text of v into buf and returns its length.
// Call with a nil buf to size the buffer first; if buf is too short
// nothing is written and the required length is returned.
func (v Version) Format(buf []byte) int {
	var scratch [48]byte
	out := v.appendTo(scratch[:0])
	if len(buf) < len(out) {
		return len(out)
	}
	return copy(buf, out)
}

func (v Version) String() string {
	return string(v.appendTo(make([]byte, 0, 24)))
}

func (v Version) appendTo(b []byte) []byte {
	b = appendTriple(b, v.Primary)
	switch v.Kind {
	case Preview:
		b = append(b, previewMarker...)
	case ReleaseCandidate:
		b = append(b, rcMarker...)
	default:
		return b
	}
	b = append(b, '.')
	return appendTriple(b, v.Svn)
}

func appendTriple(b []byte, t Triple) []byte {
	b = strconv.AppendUint(b, uint64(t.Major), 10)
	b = append(b, '.')
	b = strconv.AppendUint(b, uint64(t.Minor), 10)
	b = append(b, '.')
	return strconv.AppendUint(b, uint64(t.Patch), 10)
}
