package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/clr-host/config"
	"github.com/wippyai/clr-host/errors"
	"github.com/wippyai/clr-host/version"
)

// HostFXRDir is the directory under a runtime root holding one
// subdirectory per installed hosting library version.
const HostFXRDir = "host/fxr"

// Result is a located hosting library directory.
type Result struct {
	// Dir is <root>/host/fxr/<version>/ and always ends with a separator.
	Dir     string
	Root    string
	Version version.Version
}

// Candidate is an installed runtime seen during a search.
type Candidate struct {
	Root    string
	Dir     string
	Version version.Version
}

// Finder searches candidate roots for an installed hosting library.
type Finder struct {
	roots []string
}

// NewFinder creates a finder over an ordered list of roots. Empty entries
// are dropped; order is preserved and decides precedence.
func NewFinder(roots ...string) *Finder {
	f := &Finder{roots: make([]string, 0, len(roots))}
	for _, r := range roots {
		if r != "" {
			f.roots = append(f.roots, r)
		}
	}
	return f
}

// Roots builds the candidate list: the explicit root first, then every
// non-empty entry of the search path list.
func Roots(root, searchPath string) []string {
	var roots []string
	if root != "" {
		roots = append(roots, root)
	}
	for _, p := range filepath.SplitList(searchPath) {
		if p != "" {
			roots = append(roots, p)
		}
	}
	return roots
}

// FromConfig creates a finder for the configured runtime roots.
func FromConfig(cfg config.RuntimeConfig) *Finder {
	return NewFinder(Roots(cfg.Root, cfg.SearchPath)...)
}

// FromEnvironment creates a finder from DOTNET_ROOT and PATH.
func FromEnvironment() *Finder {
	return NewFinder(Roots(os.Getenv("DOTNET_ROOT"), os.Getenv("PATH"))...)
}

// RootList returns the ordered roots searched by f.
func (f *Finder) RootList() []string {
	return append([]string(nil), f.roots...)
}

// Find locates the hosting library for requested.
//
// An exact match returns immediately, so the first root holding it wins.
// When requested is the zero Version the highest version seen in any root
// is returned; among equal versions the earliest root is kept. Otherwise
// a not-found error is returned.
func (f *Finder) Find(requested version.Version) (Result, error) {
	var best Candidate
	found := false

	for _, root := range f.roots {
		for _, c := range scanRoot(root) {
			cmp := version.Compare(c.Version, requested)
			if cmp < 0 {
				continue
			}
			if cmp == 0 {
				Logger().Debug("runtime exact match",
					zap.String("root", root),
					zap.Stringer("version", c.Version))
				return c.result(), nil
			}
			if !found || c.Version.Greater(best.Version) {
				best = c
				found = true
			}
		}
	}

	if requested.IsEmpty() && found {
		Logger().Debug("runtime best match",
			zap.String("root", best.Root),
			zap.Stringer("version", best.Version))
		return best.result(), nil
	}

	return Result{}, errors.New(errors.PhaseDiscover, errors.KindNotFound).
		Path(f.roots...).
		Value(requested).
		Detail("no hosting library matching version %q", describe(requested)).
		Build()
}

// Candidates lists every installed hosting library version, roots in order
// and versions ascending within a root.
func (f *Finder) Candidates() []Candidate {
	var out []Candidate
	for _, root := range f.roots {
		out = append(out, scanRoot(root)...)
	}
	return out
}

func (c Candidate) result() Result {
	return Result{
		Dir:     c.Dir,
		Root:    c.Root,
		Version: c.Version,
	}
}

// scanRoot enumerates <root>/host/fxr. Missing directories, files and
// names that are not versions are skipped.
func scanRoot(root string) []Candidate {
	fxr := filepath.Join(root, filepath.FromSlash(HostFXRDir))
	entries, err := os.ReadDir(fxr)
	if err != nil {
		if !os.IsNotExist(err) {
			Logger().Debug("cannot read hosting directory", zap.String("dir", fxr), zap.Error(err))
		}
		return nil
	}

	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if !isDir(fxr, e) {
			continue
		}
		v := version.Parse(e.Name())
		if v.IsEmpty() {
			continue
		}
		out = append(out, Candidate{
			Root:    root,
			Dir:     withTrailingSeparator(filepath.Join(fxr, e.Name())),
			Version: v,
		})
	}
	slices.SortStableFunc(out, func(a, b Candidate) int {
		return version.Compare(a.Version, b.Version)
	})
	return out
}

// isDir follows symlinks so linked installations are still found.
func isDir(parent string, e fs.DirEntry) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

func withTrailingSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}

func describe(v version.Version) string {
	if v.IsEmpty() {
		return "latest"
	}
	return v.String()
}
