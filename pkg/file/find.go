package file

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// FindMatching walks dir and returns every regular file whose base name
// matches the glob pattern, sorted for stable processing order.
// Subdirectories are included in the walk so nested subtitle layouts
// (one directory per show) work without flattening.
func FindMatching(dir, pattern string) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
		if ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}
