package filesystem

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Ignorer decides which entries below a scan root are skipped.
// Hidden entries are always skipped; extra patterns use doublestar syntax.
type Ignorer struct {
	patterns []string
}

// NewIgnorer creates an Ignorer with the given extra patterns.
// Blank patterns and "#" comments are dropped.
func NewIgnorer(patterns []string) *Ignorer {
	ign := &Ignorer{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		ign.patterns = append(ign.patterns, filepath.ToSlash(p))
	}
	return ign
}

// Patterns returns the configured extra patterns.
func (i *Ignorer) Patterns() []string {
	return append([]string(nil), i.patterns...)
}

// ShouldIgnore checks if the given path should be ignored.
// It checks against the file name (basename) and the path relative to root.
func (i *Ignorer) ShouldIgnore(path string, root string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	if i == nil {
		return false
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = name
	}
	relPath = filepath.ToSlash(relPath)

	for _, p := range i.patterns {
		cleanP := strings.TrimSuffix(p, "/")

		// Anchored patterns only match relative to the root
		if strings.HasPrefix(cleanP, "/") {
			if ok, _ := doublestar.Match(strings.TrimPrefix(cleanP, "/"), relPath); ok {
				return true
			}
			continue
		}

		if ok, _ := doublestar.Match(cleanP, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(cleanP, relPath); ok {
			return true
		}
	}
	return false
}
