// Package version parses and orders runtime version identifiers such as
// 9.0.0, 9.0.0-preview.5.24306.7 and 9.0.0-rc.1.24431.7.
//
// A Version packs major.minor.patch into one ordinal. Ties are broken by
// release kind (Release > ReleaseCandidate > Preview) and then by the
// secondary "svn" triple that numbers pre-release iterations.
//
// The zero Version is a wildcard meaning "best available"; Parse never
// fails and returns the zero Version for malformed input.
package version
