// Package discovery locates an installed runtime hosting library.
//
// Installed runtimes are versioned by directory name, so discovery is a
// directory listing of <root>/host/fxr/ for each candidate root combined
// with the version total order:
//
//	finder := discovery.FromEnvironment() // DOTNET_ROOT, then PATH entries
//	res, err := finder.Find(version.Parse("9.0.0"))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Dir) // /usr/share/dotnet/host/fxr/9.0.0/
//
// Root order matters: the first root holding an exact match wins. Passing
// the zero Version selects the highest version found in any root.
package discovery
