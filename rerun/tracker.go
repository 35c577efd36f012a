// Package rerun persists the list of specification files that failed in the
// previous run so the next run can be restricted to them.
package rerun

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// FileName is the name of the list inside the rerun directory.
const FileName = "rerun.dat"

// List is an ordered set of fully-qualified spec paths. An empty List places no
// restriction on selection.
type List []string

// Empty reports whether the list restricts nothing.
func (l List) Empty() bool {
	return len(l) == 0
}

// Contains reports whether path is in the list.
func (l List) Contains(path string) bool {
	for _, p := range l {
		if p == path {
			return true
		}
	}
	return false
}

// Tracker reads and writes the rerun list of one rerun directory.
type Tracker struct {
	path   string
	logger *slog.Logger
}

// NewTracker creates a Tracker for <workDir>/<rerunDir>/rerun.dat.
// An absolute rerunDir is used as is.
func NewTracker(workDir, rerunDir string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dir := rerunDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workDir, rerunDir)
	}
	return &Tracker{
		path:   filepath.Join(dir, FileName),
		logger: logger.With("component", "rerun"),
	}
}

// Path returns the location of the rerun file.
func (t *Tracker) Path() string {
	return t.path
}

// Load reads the rerun list. A missing file yields an empty list.
func (t *Tracker) Load() (List, error) {
	data, err := t.read()
	if errors.Is(err, fs.ErrNotExist) {
		t.logger.Debug("rerun file not found", "path", t.path)
		return List{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rerun file %s: %w", t.path, err)
	}

	text := strings.TrimRight(string(data), " \t\r\n")
	if text == "" {
		return List{}, nil
	}

	lines := strings.Split(text, "\n")
	list := make(List, 0, len(lines))
	for _, line := range lines {
		list = append(list, strings.TrimRight(line, "\r"))
	}
	t.logger.Debug("loaded rerun list", "path", t.path, "count", len(list))
	return list, nil
}

// Persist overwrites the rerun file with failed, one path per line. An empty
// slice writes an empty file, which lifts the restriction for the next run.
func (t *Tracker) Persist(failed []string) error {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create rerun directory %s: %w", dir, err)
	}

	lock := flock.New(t.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", t.path, err)
	}
	defer lock.Unlock()

	if err := atomicWrite(t.path, []byte(strings.Join(failed, "\n"))); err != nil {
		return err
	}
	t.logger.Debug("wrote rerun list", "path", t.path, "count", len(failed))
	return nil
}

func (t *Tracker) read() ([]byte, error) {
	if _, err := os.Stat(t.path); err != nil {
		return nil, err
	}

	// Reading must work in a directory where the lock file cannot be created.
	lock := flock.New(t.path + ".lock")
	if err := lock.RLock(); err != nil {
		t.logger.Debug("reading rerun file without lock", "path", t.path, "error", err)
		return os.ReadFile(t.path)
	}
	defer lock.Unlock()

	return os.ReadFile(t.path)
}

// atomicWrite writes data to a temp file in the target directory and renames it
// over path, so readers never observe a partial list.
func atomicWrite(path string, data []byte) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), ".rerun-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
