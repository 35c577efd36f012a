package filesystem

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDuration = 100 * time.Millisecond

// Watcher monitors scan roots for changes to recognized files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	ignorer   *Ignorer
	roots     []string
	logger    *slog.Logger
	Events    chan string // Signal to re-run the pipeline, carries the changed file path
	done      chan struct{}
}

// NewWatcher creates a Watcher over the given directory roots.
func NewWatcher(roots []string, ignorer *Ignorer, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		ignorer:   ignorer,
		roots:     roots,
		logger:    logger.With("component", "watcher"),
		Events:    make(chan string, 10), // Buffered to prevent blocking
		done:      make(chan struct{}),
	}

	// fsnotify is not recursive, so every directory below each root is added explicitly.
	for _, root := range roots {
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && w.shouldIgnore(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		})
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}

	go w.startLoop()

	return w, nil
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() {
	close(w.done)
	w.fsWatcher.Close()
}

func (w *Watcher) shouldIgnore(path string) bool {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return w.ignorer.ShouldIgnore(path, root)
		}
	}
	return w.ignorer.ShouldIgnore(path, filepath.Dir(path))
}

func (w *Watcher) startLoop() {
	var timer *time.Timer

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}

			// Ignore CHMOD events which can be noisy
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			// New directories need to be watched too
			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if err := w.fsWatcher.Add(event.Name); err != nil {
						w.logger.Warn("failed to watch directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			if !RecognizedExtension(event.Name) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			name := event.Name
			timer = time.AfterFunc(debounceDuration, func() {
				select {
				case w.Events <- name:
				case <-w.done:
				}
			})

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}
