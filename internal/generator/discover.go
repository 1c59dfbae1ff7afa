package generator

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"bennypowers.dev/tcm/internal/collections"
	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are directories left out of discovery unless the pattern names
// them as a path segment
var skipDirs = []string{"node_modules", "dist", "build"}

// shouldSkipDirectory checks if a directory should be skipped during
// discovery: hidden directories and common dependency/build directories,
// except those the pattern explicitly names.
func shouldSkipDirectory(d fs.DirEntry, pattern string) bool {
	return d.IsDir() && skipDirectoryName(d.Name(), pattern)
}

func skipDirectoryName(name, pattern string) bool {
	if name == "." || name == ".." {
		return false
	}
	if !strings.HasPrefix(name, ".") && !slices.Contains(skipDirs, name) {
		return false
	}
	return !slices.Contains(strings.Split(filepath.ToSlash(pattern), "/"), name)
}

// matchGlobPattern matches a glob pattern against a relative path
func matchGlobPattern(pattern, path string) (bool, error) {
	// doublestar expects forward slashes
	return doublestar.Match(pattern, filepath.ToSlash(path))
}

// walk visits every file under root that discovery would consider, and
// every directory it descends into when onDir is not nil
func walk(root, pattern string, onDir func(dir string) error, onFile func(path, rel string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // Skip unreadable entries, continue walking
		}
		if d.IsDir() {
			if path != root && shouldSkipDirectory(d, pattern) {
				return filepath.SkipDir
			}
			if onDir != nil {
				return onDir(path)
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		return onFile(path, rel)
	})
}

// Discover returns the absolute paths of the files under root matching
// pattern, sorted and without duplicates.
func Discover(root, pattern string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	found := collections.NewSet[string]()
	err = walk(absRoot, pattern, nil, func(path, rel string) error {
		matched, err := matchGlobPattern(pattern, rel)
		if err != nil {
			return err
		}
		if matched {
			found.Add(path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	paths := found.Members()
	slices.Sort(paths)
	return paths, nil
}
