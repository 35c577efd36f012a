// Package config loads lazyspec configuration from defaults, an optional
// config file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jesspatton/lazyspec/logging"
	"github.com/jesspatton/lazyspec/selection"
)

// DefaultFileName is looked up in the working directory when no config path is given.
const DefaultFileName = ".lazyspec.yml"

// DefaultRoot is scanned when no root targets are passed.
const DefaultRoot = "tests"

// DefaultCommand runs one spec file; <path> is replaced by the spec path.
const DefaultCommand = "npx yadda <path>"

// Environment variables that override the config file.
const (
	EnvRerun       = "LAZYSPEC_RERUN"
	EnvCommand     = "LAZYSPEC_COMMAND"
	EnvLogLevel    = "LAZYSPEC_LOG_LEVEL"
	EnvTags        = "LAZYSPEC_TAGS"
	EnvExcludeTags = "LAZYSPEC_EXCLUDE_TAGS"
)

// Config represents lazyspec configuration options. Keys follow the camelCase
// names of the original JSON config so those files load unchanged.
type Config struct {
	// Browsers are passed through to the spec command.
	Browsers []string `yaml:"browsers"`

	// Timeout is the per-spec execution limit.
	Timeout time.Duration `yaml:"-"`

	// Slow is the duration above which a spec is reported as slow.
	Slow time.Duration `yaml:"-"`

	// FailFast stops the run on the first failing spec.
	FailFast bool `yaml:"failfast"`

	// TestStrategy is "test" or "browser".
	TestStrategy string `yaml:"testStrategy"`

	// Reporters and ReportPath are passed through to the executor.
	Reporters  []string `yaml:"reporters"`
	ReportPath string   `yaml:"reportPath"`

	// Rerun is the rerun directory; empty disables rerun tracking.
	Rerun string `yaml:"rerun"`

	// Match, MatchInvert, Tags and ExcludeTags select spec files.
	Match       string   `yaml:"match"`
	MatchInvert bool     `yaml:"matchInvert"`
	Tags        []string `yaml:"tags"`
	ExcludeTags []string `yaml:"excludeTags"`

	// Command is the spec command template.
	Command string `yaml:"command"`

	// Overrides replace Command for specs matching a pattern. First match wins.
	Overrides []CommandOverride `yaml:"overrides"`

	// Ignore lists extra scanner ignore patterns.
	Ignore []string `yaml:"ignore"`

	// LogLevel is the console log level; Log is an optional debug log file.
	LogLevel string `yaml:"logLevel"`
	Log      string `yaml:"log"`
}

// CommandOverride selects a different command template for specs whose path,
// relative to their execution root, matches Pattern (doublestar syntax).
type CommandOverride struct {
	Pattern string `yaml:"pattern"`
	Command string `yaml:"command"`
}

// fileConfig mirrors Config with durations in milliseconds, as in the original CLI.
type fileConfig struct {
	Config  `yaml:",inline"`
	Timeout *int64 `yaml:"timeout"`
	Slow    *int64 `yaml:"slow"`
	Bail    *bool  `yaml:"bail"`
	Debug   *bool  `yaml:"debug"`
}

// DefaultConfig returns a Config with the original CLI defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		Slow:         5 * time.Second,
		TestStrategy: "test",
		Command:      DefaultCommand,
		LogLevel:     "warn",
	}
}

// LoadConfig loads configuration from path on top of the defaults.
// A missing file returns the defaults; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	fc := fileConfig{Config: *cfg}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	*cfg = fc.Config
	if fc.Timeout != nil {
		cfg.Timeout = time.Duration(*fc.Timeout) * time.Millisecond
	}
	if fc.Slow != nil {
		cfg.Slow = time.Duration(*fc.Slow) * time.Millisecond
	}
	if fc.Bail != nil && *fc.Bail {
		cfg.FailFast = true
	}
	if fc.Debug != nil && *fc.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// LoadConfigFromDir loads DefaultFileName from dir, if present.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, DefaultFileName))
}

// ApplyEnv loads envFile (when it exists) into the process environment and
// applies the LAZYSPEC_* overrides. Variables already set are not replaced by
// the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if v, ok := os.LookupEnv(EnvRerun); ok {
		c.Rerun = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCommand)); v != "" {
		c.Command = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvTags); ok {
		c.Tags = SplitList(v)
	}
	if v, ok := os.LookupEnv(EnvExcludeTags); ok {
		c.ExcludeTags = SplitList(v)
	}
	return nil
}

// Flags carries command-line overrides. Nil fields were not set on the command line.
type Flags struct {
	Browsers     *[]string
	Timeout      *time.Duration
	Slow         *time.Duration
	FailFast     *bool
	TestStrategy *string
	Reporters    *[]string
	ReportPath   *string
	Rerun        *string
	Match        *string
	MatchInvert  *bool
	Tags         *[]string
	ExcludeTags  *[]string
	Command      *string
	Debug        *bool
	Log          *string
}

// MergeWithFlags applies non-nil flag values over the current configuration.
func (c *Config) MergeWithFlags(f Flags) {
	if f.Browsers != nil {
		c.Browsers = *f.Browsers
	}
	if f.Timeout != nil {
		c.Timeout = *f.Timeout
	}
	if f.Slow != nil {
		c.Slow = *f.Slow
	}
	if f.FailFast != nil {
		c.FailFast = *f.FailFast
	}
	if f.TestStrategy != nil {
		c.TestStrategy = *f.TestStrategy
	}
	if f.Reporters != nil {
		c.Reporters = *f.Reporters
	}
	if f.ReportPath != nil {
		c.ReportPath = *f.ReportPath
	}
	if f.Rerun != nil {
		c.Rerun = *f.Rerun
	}
	if f.Match != nil {
		c.Match = *f.Match
	}
	if f.MatchInvert != nil {
		c.MatchInvert = *f.MatchInvert
	}
	if f.Tags != nil {
		c.Tags = *f.Tags
	}
	if f.ExcludeTags != nil {
		c.ExcludeTags = *f.ExcludeTags
	}
	if f.Command != nil {
		c.Command = *f.Command
	}
	if f.Debug != nil && *f.Debug {
		c.LogLevel = "debug"
	}
	if f.Log != nil {
		c.Log = *f.Log
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Slow <= 0 {
		return fmt.Errorf("slow threshold must be positive, got %s", c.Slow)
	}
	switch c.TestStrategy {
	case "test", "browser":
	default:
		return fmt.Errorf("test strategy must be \"test\" or \"browser\", got %q", c.TestStrategy)
	}
	if strings.TrimSpace(c.Command) == "" {
		return errors.New("command must not be empty")
	}
	for i, o := range c.Overrides {
		if o.Pattern == "" || strings.TrimSpace(o.Command) == "" {
			return fmt.Errorf("override %d needs both a pattern and a command", i)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Selection builds the immutable selection parameters from the configuration.
func (c *Config) Selection() (selection.Params, error) {
	return selection.NewParams(selection.Options{
		Pattern:     c.Match,
		Invert:      c.MatchInvert,
		IncludeTags: c.Tags,
		ExcludeTags: c.ExcludeTags,
		RerunDir:    c.Rerun,
	})
}

// SplitList splits a comma-delimited list, dropping empty entries. An empty
// input yields nil, which means "unset".
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
