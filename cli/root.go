// Package cli implements the lazyspec command line.
package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ErrTestsFailed is returned when a run finished with failing specs. The
// summary has already been printed, so callers only set the exit status.
var ErrTestsFailed = errors.New("tests failed")

// NewRootCommand creates and returns the root cobra command for lazyspec
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lazyspec",
		Short: "Discover, select and run BDD feature specifications",
		Long: `lazyspec finds feature files, step definitions and supporting sources
below one or more roots, narrows the feature files by name pattern, tags and
the failures of the previous run, and runs each selected feature through a
configurable command.

Configuration is loaded from .lazyspec.yml in the working directory if present.
Environment variables (LAZYSPEC_*) override the file and flags override both.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints errors; a failed run only sets the exit status
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .lazyspec.yml)")
	cmd.PersistentFlags().Bool("debug", false, "Log debug information")
	cmd.PersistentFlags().String("log", "", "Write a debug log to this file")

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewGenerateCommand())

	return cmd
}
