// Package logging builds the slog loggers used across lazyspec.
//
// Console output is rendered as "[HH:MM:SS] [LEVEL] message key=value" with
// colored levels when writing to a terminal. An optional log file receives
// every record at debug level regardless of the console level.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Options configures New.
type Options struct {
	// Level is the console level: debug, info, warn or error.
	Level string
	// Writer receives console output. Defaults to os.Stderr.
	Writer io.Writer
	// File, when set, is created (truncated) and receives debug-level output.
	File string
}

// ParseLevel converts a level name to a slog.Level. Names are case-insensitive.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// New creates a logger from opts. The returned close function releases the log
// file, if any, and is always safe to call.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlers := []slog.Handler{NewConsoleHandler(w, level)}
	closeFn := func() error { return nil }

	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		f, err := os.Create(opts.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closeFn = f.Close
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), closeFn, nil
	}
	return slog.New(&fanoutHandler{handlers: handlers}), closeFn, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ConsoleHandler is a slog.Handler for human-readable terminal output.
type ConsoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	prefix string
}

// NewConsoleHandler creates a ConsoleHandler. Colors are enabled only when w is
// a terminal and NO_COLOR is not set.
func NewConsoleHandler(w io.Writer, level slog.Leveler) *ConsoleHandler {
	return &ConsoleHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		color: IsTerminal(w),
	}
}

// IsTerminal reports whether w is a terminal that should receive colors.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(&b, "[%s] %s %s", ts.Format("15:04:05"), h.levelLabel(r.Level), r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *ConsoleHandler) levelLabel(level slog.Level) string {
	label := "[" + level.String() + "]"
	if !h.color {
		return label
	}
	switch {
	case level >= slog.LevelError:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case level >= slog.LevelWarn:
		return color.New(color.FgYellow).Sprint(label)
	case level >= slog.LevelInfo:
		return color.New(color.FgCyan).Sprint(label)
	default:
		return color.New(color.FgHiBlack).Sprint(label)
	}
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}

	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"=") || val == "" {
		val = fmt.Sprintf("%q", val)
	}
	fmt.Fprintf(b, " %s%s=%s", prefix, a.Key, val)
}

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: hs}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: hs}
}
