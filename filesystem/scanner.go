package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Scanner enumerates candidate files below a resolved root.
type Scanner struct {
	ignorer *Ignorer
}

// NewScanner creates a Scanner. A nil ignorer skips hidden entries only.
func NewScanner(ignorer *Ignorer) *Scanner {
	return &Scanner{ignorer: ignorer}
}

// Scan walks root recursively and returns every file with a recognized extension,
// sorted lexically. A root that is itself a recognized file yields just that file.
func (s *Scanner) Scan(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", root, err)
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() && RecognizedExtension(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		if s.ignorer.ShouldIgnore(path, root) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if RecognizedExtension(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
