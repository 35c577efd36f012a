package filesystem

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Resolver turns root targets into existing filesystem paths.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger discards diagnostics.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{logger: logger.With("component", "resolver")}
}

// Resolve returns the paths a target names. An existing path resolves to itself;
// otherwise the target is expanded as a glob pattern. A target that resolves to
// nothing is logged at warn level and yields no paths.
func (r *Resolver) Resolve(target string) []string {
	if _, err := os.Stat(target); err == nil {
		return []string{target}
	}

	matches, err := doublestar.Glob(target)
	if err != nil || len(matches) == 0 {
		r.logger.Warn("cannot resolve path (or pattern)", "target", target)
		return nil
	}
	sort.Strings(matches)
	return matches
}

// RelativeTo shortens path to be relative to workDir when it lies below it.
// Relative paths and paths outside workDir are returned unchanged.
func RelativeTo(workDir, path string) string {
	if workDir == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(workDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
