package pdf

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdfgrid/pdfgrid/pdf/filecache"
)

// Environment variables consulted by SearchPathsFromEnv, in priority order.
var SearchPathEnvVars = []string{"PDFGRID_DATA_PATH", "LHAPDF_DATA_PATH", "LHAPATH"}

// IndexFileName is the set/member identity index looked up in every search path.
const IndexFileName = "pdfsets.index"

// SearchPaths is an ordered list of data directories. Entries may be local
// directories or s3://bucket/prefix locations.
type SearchPaths []string

// SearchPathsFromEnv collects colon-separated directories from the search
// path environment variables. Order is preserved and duplicates are dropped.
func SearchPathsFromEnv() SearchPaths {
	var paths SearchPaths
	for _, name := range SearchPathEnvVars {
		paths = paths.Append(strings.Split(os.Getenv(name), ":")...)
	}
	return paths
}

// Append adds dirs after the current entries, skipping empty and repeated ones.
func (sp SearchPaths) Append(dirs ...string) SearchPaths {
	seen := make(map[string]bool, len(sp)+len(dirs))
	for _, d := range sp {
		seen[d] = true
	}
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		sp = append(sp, d)
	}
	return sp
}

// Prepend puts dirs ahead of the current entries.
func (sp SearchPaths) Prepend(dirs ...string) SearchPaths {
	return SearchPaths(nil).Append(dirs...).Append(sp...)
}

// SetInfoPath is the set metadata file relative to a search path.
func SetInfoPath(set string) string {
	return path.Join(set, set+".info")
}

// MemberPath is the uncompressed member data file relative to a search path.
func MemberPath(set string, member int) string {
	return path.Join(set, fmt.Sprintf("%s_%04d.dat", set, member))
}

// joinPath resolves rel under dir. Object-store locations are joined with
// forward slashes regardless of the host OS.
func joinPath(dir, rel string) string {
	if strings.HasPrefix(dir, filecache.ObjectScheme) {
		return strings.TrimSuffix(dir, "/") + "/" + strings.TrimPrefix(rel, "/")
	}
	return filepath.Join(dir, filepath.FromSlash(rel))
}

// isDirectPath reports whether p is used as-is rather than searched for.
func isDirectPath(p string) bool {
	return filepath.IsAbs(p) || strings.HasPrefix(p, filecache.ObjectScheme) ||
		strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}
