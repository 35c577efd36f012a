package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jesspatton/lazyspec/engine"
	"github.com/jesspatton/lazyspec/filesystem"
	"github.com/jesspatton/lazyspec/runner"
	"github.com/jesspatton/lazyspec/ui"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Run feature specifications again whenever a file changes",
		Long: `Run like the run command, then watch every root for changes to feature,
step and source files and run the whole pipeline again.

On a terminal an interactive dashboard shows each feature with its status and
output. Otherwise progress is written as plain log lines.`,
		RunE: watchCommand,
	}

	addSelectionFlags(cmd)
	addRunFlags(cmd)
	cmd.Flags().Bool("no-tui", false, "Write plain output even on a terminal")

	return cmd
}

func watchCommand(cmd *cobra.Command, args []string) error {
	noTUI, _ := cmd.Flags().GetBool("no-tui")
	tui := !noTUI && isTerminal(os.Stdout)

	events := ui.NewEvents()
	var console io.Writer = cmd.ErrOrStderr()
	if tui {
		console = events
	}

	s, err := loadSettings(cmd, console)
	if err != nil {
		return err
	}
	defer s.Close()

	x := runner.NewExecutor(s.workDir, s.logger)
	e, err := engine.New(s.cfg, x, engine.Options{WorkDir: s.workDir, Logger: s.logger})
	if err != nil {
		return err
	}

	dirs := watchDirs(e.Roots(args))
	if len(dirs) == 0 {
		return errors.New("nothing to watch")
	}
	w, err := filesystem.NewWatcher(dirs, e.Ignorer(), s.logger)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	if tui {
		x.OnStart = events.Start
		x.OnOutput = events.Output
		x.OnDone = events.Done

		m := ui.NewModel(ui.Options{
			Pipeline: e,
			Targets:  args,
			Events:   events,
			Changes:  w.Events,
			Kill:     x.Kill,
			WorkDir:  s.workDir,
		})
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("dashboard failed: %w", err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	x.OnOutput = func(_, line string) { fmt.Fprintln(out, line) }

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchLoop(ctx, e, args, w.Events, out, s.workDir, s.logger)
}

// watchLoop runs the pipeline once and again after every change until ctx is
// cancelled. Changes seen during a run collapse into a single follow-up run.
// Run errors are logged and do not stop watching.
func watchLoop(ctx context.Context, e *engine.Engine, args []string, changes <-chan string, out io.Writer, workDir string, logger *slog.Logger) error {
	for {
		err := runOnce(ctx, e, args, out, workDir)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, ErrTestsFailed) {
			logger.Error("run failed", "error", err)
		}

		if n := drain(changes); n > 0 {
			logger.Info("files changed during run", "count", n)
			continue
		}
		logger.Info("waiting for changes")

		select {
		case <-ctx.Done():
			return nil
		case path := <-changes:
			logger.Info("file changed", "path", path)
		}
	}
}

// drain empties changes without blocking and returns how many were queued.
func drain(changes <-chan string) int {
	n := 0
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

// watchDirs maps roots to the directories that contain them, without duplicates.
func watchDirs(roots []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			continue
		}
		dir := root
		if !info.IsDir() {
			dir = filepath.Dir(root)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
