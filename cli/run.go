package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jesspatton/lazyspec/engine"
	"github.com/jesspatton/lazyspec/filesystem"
	"github.com/jesspatton/lazyspec/runner"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Discover and run feature specifications",
		Long: `Discover feature files below each path (default: tests) and run every
selected feature through the spec command, one at a time.

Paths may be files, directories or glob patterns. Step definitions are files
named like login-steps.js or LoginSteps.js; every other recognized file is a
source file. Both lists are exposed to the spec command through
LAZYSPEC_STEP_FILES and LAZYSPEC_SOURCE_FILES.

Examples:
  lazyspec run
  lazyspec run tests/login 'features/**/*.feature'
  lazyspec run --tags smoke --exclude-tags wip
  lazyspec run --rerun reports       # only features that failed last time
  lazyspec run --command "node spec.js <path>" --timeout 30000`,
		RunE: runCommand,
	}

	addSelectionFlags(cmd)
	addRunFlags(cmd)

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	x := runner.NewExecutor(s.workDir, s.logger)
	x.OnOutput = func(_, line string) { fmt.Fprintln(out, line) }

	e, err := engine.New(s.cfg, x, engine.Options{WorkDir: s.workDir, Logger: s.logger})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runOnce(ctx, e, args, out, s.workDir)
}

// runOnce runs the pipeline and prints the summary. Failing specs yield
// ErrTestsFailed; a pipeline error is returned even when the run itself
// completed, so both are reported.
func runOnce(ctx context.Context, e *engine.Engine, args []string, out io.Writer, workDir string) error {
	stats, err := e.Run(ctx, args)
	if stats.RunID != "" {
		printSummary(out, stats, workDir)
	}
	if err != nil {
		return err
	}
	if stats.Failures > 0 {
		return ErrTestsFailed
	}
	return nil
}

func printSummary(w io.Writer, stats engine.Stats, workDir string) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Fprintln(w)
	if len(stats.Results) == 0 {
		fmt.Fprintln(w, "No specs selected.")
		return
	}

	green.Fprintf(w, "%d passed", stats.Passes)
	fmt.Fprint(w, ", ")
	if stats.Failures > 0 {
		red.Fprintf(w, "%d failed", stats.Failures)
	} else {
		fmt.Fprintf(w, "%d failed", stats.Failures)
	}
	fmt.Fprintf(w, " (%s)\n", stats.Duration.Round(time.Millisecond))

	failed := stats.FailedFiles()
	if len(failed) == 0 {
		return
	}
	fmt.Fprintln(w, "\nFailed specs:")
	for _, r := range stats.Results {
		if r.Failures == 0 {
			continue
		}
		line := "  - " + filesystem.RelativeTo(workDir, r.File)
		if r.Err != nil {
			line += fmt.Sprintf(" (%v)", r.Err)
		}
		red.Fprintln(w, line)
	}
}
