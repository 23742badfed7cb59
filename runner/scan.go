package runner

import (
	"os"
	"path/filepath"
	"sort"
)

// DocumentFilter decides which files and directories a scan visits.
type DocumentFilter interface {
	ShouldIgnoreDir(absolutePath string) bool
	IsDocument(absolutePath string) bool
}

// Scan walks rootDir and returns the root-relative, slash-separated paths of
// every document the filter accepts, sorted. Unreadable entries are skipped.
func Scan(rootDir string, filter DocumentFilter) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == rootDir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != rootDir && filter.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !filter.IsDocument(path) {
			return nil
		}
		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
