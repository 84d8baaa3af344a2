// Package pdf evaluates tabulated parton distribution functions on (x, Q²)
// grids.
//
// # Reading Guide
//
// Start with these files:
//   - knots.go: Subgrid and KnotArray, the immutable grid data model
//   - gridfile.go: the text grid format (YAML header plus knot blocks)
//   - gridpdf.go: GridPDF, which loads a set member and dispatches each query
//     to the interpolator or the extrapolator
//
// # Architecture
//
// The pdf package defines interfaces and the loading context; strategies live
// in sub-packages:
//   - pdf/interp/: linear, log, cubic and logcubic interpolators
//   - pdf/extrap/: nearest, continuation and error-scaled extrapolators
//   - pdf/filecache/: the shared file-content cache and its fetchers (local,
//     object store, rank-0 broadcast)
//
// Sub-packages register their implementations via init() functions that set
// package-level factory variables (NewInterpolatorFunc, NewExtrapolatorFunc).
// Programs import both strategy packages, usually blank.
//
// # Loading
//
// An Env bundles the search paths, the file cache and default metadata. A
// GridPDF is built from a set name and member, a "set/member" string, a
// global id looked up in the pdfsets.index files, or a direct file path.
// Metadata is layered: Env.Defaults, then <set>/<set>.info, then the member
// file header.
package pdf
