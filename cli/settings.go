package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jesspatton/lazyspec/config"
	"github.com/jesspatton/lazyspec/logging"
)

// settings is the merged configuration of one invocation.
type settings struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	workDir  string
}

func (s *settings) Close() {
	if s.closeLog != nil {
		s.closeLog()
	}
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("match", "m", "", "Only select feature files whose path matches this regular expression")
	cmd.Flags().Bool("match-invert", false, "Select feature files that do not match --match")
	cmd.Flags().StringSliceP("tags", "T", nil, "Only select features annotated with one of these tags")
	cmd.Flags().StringSliceP("exclude-tags", "E", nil, "Skip features annotated with one of these tags")
	cmd.Flags().String("rerun", "", "Directory of the rerun file; restricts runs to previous failures")
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("browsers", "b", nil, "Browsers passed to the spec command")
	cmd.Flags().Int64P("timeout", "t", 10000, "Per-spec timeout in milliseconds")
	cmd.Flags().Int64P("slow", "s", 5000, "Specs slower than this many milliseconds are reported")
	cmd.Flags().BoolP("failfast", "f", false, "Stop after the first failing spec")
	cmd.Flags().String("test-strategy", "test", "Test strategy passed to the spec command (test or browser)")
	cmd.Flags().StringSlice("reporters", nil, "Reporters passed to the spec command")
	cmd.Flags().String("report-path", "", "Report directory passed to the spec command")
	cmd.Flags().String("command", "", "Spec command template; <path> is replaced by the spec path")
}

// loadSettings merges defaults, the config file, the environment and the
// flags that were set on cmd, then builds the logger writing to console.
func loadSettings(cmd *cobra.Command, console io.Writer) (*settings, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	var cfg *config.Config
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(workDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(filepath.Join(workDir, ".env")); err != nil {
		return nil, err
	}

	cfg.MergeWithFlags(flagsFrom(cmd))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Writer: console,
		File:   cfg.Log,
	})
	if err != nil {
		return nil, err
	}

	return &settings{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		workDir:  workDir,
	}, nil
}

// flagsFrom collects the flags that were explicitly set. Flags a command does
// not define are left nil.
func flagsFrom(cmd *cobra.Command) config.Flags {
	var f config.Flags
	flags := cmd.Flags()

	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	str := func(name string) *string {
		if !changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	boolean := func(name string) *bool {
		if !changed(name) {
			return nil
		}
		v, _ := flags.GetBool(name)
		return &v
	}
	list := func(name string) *[]string {
		if !changed(name) {
			return nil
		}
		v, _ := flags.GetStringSlice(name)
		return &v
	}
	millis := func(name string) *time.Duration {
		if !changed(name) {
			return nil
		}
		v, _ := flags.GetInt64(name)
		d := time.Duration(v) * time.Millisecond
		return &d
	}

	f.Browsers = list("browsers")
	f.Timeout = millis("timeout")
	f.Slow = millis("slow")
	f.FailFast = boolean("failfast")
	f.TestStrategy = str("test-strategy")
	f.Reporters = list("reporters")
	f.ReportPath = str("report-path")
	f.Rerun = str("rerun")
	f.Match = str("match")
	f.MatchInvert = boolean("match-invert")
	f.Tags = list("tags")
	f.ExcludeTags = list("exclude-tags")
	f.Command = str("command")
	f.Debug = boolean("debug")
	f.Log = str("log")
	return f
}
