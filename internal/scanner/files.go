package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	dmerrors "github.com/standardbeagle/datamut/internal/errors"
)

// CollectFiles walks root and returns the sorted list of files matching any
// include glob and no exclude glob. Globs use doublestar syntax and match
// against the path relative to root with forward slashes.
func CollectFiles(root string, include, exclude []string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && excludesDir(exclude, rel) {
				return fs.SkipDir
			}
			return nil
		}
		if matchesAny(exclude, rel) {
			return nil
		}
		if matchesAny(include, rel) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, dmerrors.NewScanError("collect", err).WithFile(root)
	}
	sort.Strings(paths)
	return paths, nil
}

// matchesAny reports whether rel matches any of the given glob patterns.
// Invalid patterns never match.
func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// excludesDir reports whether a directory is wholly excluded, so the walk
// can prune it. Only patterns of the form "x/**" exclude whole trees.
func excludesDir(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		trimmed, whole := strings.CutSuffix(pattern, "/**")
		if !whole {
			continue
		}
		if ok, err := doublestar.Match(trimmed, rel); err == nil && ok {
			return true
		}
	}
	return false
}
