package runner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/jesspatton/lazyspec/config"
)

// Job is one prepared spec command.
type Job struct {
	Spec    string
	Command string
	Args    []string
	Root    string
	Env     []string
}

// ErrEmptyCommand is returned when a command template expands to nothing.
var ErrEmptyCommand = errors.New("empty command")

// PrepareJob builds the command for the spec at specPath. The execution root is
// the nearest directory holding package.json, or workDir when there is none;
// <path> in the template is replaced by the spec path relative to that root.
func PrepareJob(specPath, template string, overrides []config.CommandOverride, workDir string) (*Job, error) {
	abs := specPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(workDir, specPath)
	}

	execRoot := GetExecutionRoot(abs, workDir)
	relToRoot, err := filepath.Rel(execRoot, abs)
	if err != nil {
		relToRoot = abs
	}

	matchPath := filepath.ToSlash(relToRoot)
	for _, o := range overrides {
		if ok, _ := doublestar.Match(o.Pattern, matchPath); ok {
			template = o.Command
			break
		}
	}

	cmd, args := BuildCommandString(template, relToRoot)
	if cmd == "" {
		return nil, ErrEmptyCommand
	}

	return &Job{
		Spec:    specPath,
		Command: cmd,
		Args:    args,
		Root:    execRoot,
	}, nil
}

// GetExecutionRoot finds the nearest package.json starting from the spec file
// and walking up. fallback is returned when no ancestor has one.
func GetExecutionRoot(specPath, fallback string) string {
	dir := filepath.Dir(specPath)
	for {
		if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}
		dir = parent
	}
}

// BuildCommandString splits template into a command and its arguments, then
// substitutes <path> in each of them.
func BuildCommandString(template string, specPath string) (string, []string) {
	parts := strings.Fields(template)
	if len(parts) == 0 {
		return "", nil
	}
	// The template is split before substitution so a path with spaces stays one argument.
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(part, "<path>", specPath)
	}
	return parts[0], parts[1:]
}
