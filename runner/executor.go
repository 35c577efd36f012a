package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jesspatton/lazyspec/engine"
)

// Environment variables exposed to every spec command.
const (
	EnvStepFiles    = "LAZYSPEC_STEP_FILES"
	EnvSourceFiles  = "LAZYSPEC_SOURCE_FILES"
	EnvBrowsers     = "LAZYSPEC_BROWSERS"
	EnvTestStrategy = "LAZYSPEC_TEST_STRATEGY"
	EnvRunID        = "LAZYSPEC_RUN_ID"
	EnvReporters    = "LAZYSPEC_REPORTERS"
	EnvReportPath   = "LAZYSPEC_REPORT_PATH"
)

// Executor runs every spec of a plan through the configured command, one at a
// time. It implements engine.Executor.
type Executor struct {
	runner  *Runner
	workDir string
	logger  *slog.Logger

	// OnStart, OnOutput and OnDone observe progress. Any of them may be nil.
	OnStart  func(spec string)
	OnOutput func(spec, line string)
	OnDone   func(result engine.SpecResult)
}

var _ engine.Executor = (*Executor)(nil)

// NewExecutor creates an Executor that resolves execution roots against workDir.
func NewExecutor(workDir string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		runner:  NewRunner(),
		workDir: workDir,
		logger:  logger.With("component", "runner"),
	}
}

// Kill stops the spec currently running.
func (x *Executor) Kill() {
	x.runner.Kill()
}

// Execute runs the plan's specs in order. A non-zero exit or a timeout counts
// as one failure for that spec. With failfast the run stops after the first
// failing spec. Cancelling ctx aborts the run and returns ctx.Err().
func (x *Executor) Execute(ctx context.Context, plan engine.Plan) (engine.Stats, error) {
	cfg := plan.Config
	stats := engine.Stats{RunID: plan.RunID}
	start := time.Now()
	env := x.environment(plan)
	logger := x.logger.With("run_id", plan.RunID)

	for _, spec := range plan.Specs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		result := x.runSpec(ctx, spec, cfg.Command, plan, env, logger)
		if errors.Is(ctx.Err(), context.Canceled) {
			return stats, ctx.Err()
		}
		stats.Add(result)
		if x.OnDone != nil {
			x.OnDone(result)
		}

		if result.Failures > 0 && cfg.FailFast {
			logger.Warn("stopping after first failure", "spec", spec)
			break
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func (x *Executor) runSpec(ctx context.Context, spec, template string, plan engine.Plan, env []string, logger *slog.Logger) engine.SpecResult {
	cfg := plan.Config
	result := engine.SpecResult{File: spec}
	if x.OnStart != nil {
		x.OnStart(spec)
	}

	job, err := PrepareJob(spec, template, cfg.Overrides, x.workDir)
	if err != nil {
		result.Failures = 1
		result.Err = fmt.Errorf("failed to prepare %s: %w", spec, err)
		logger.Error("cannot run spec", "spec", spec, "error", err)
		return result
	}
	job.Env = env
	logger.Debug("running spec", "spec", spec, "command", job.Command, "args", strings.Join(job.Args, " "), "root", job.Root)

	jobCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	began := time.Now()
	x.runner.Run(jobCtx, job)
	err = x.wait(spec)
	result.Duration = time.Since(began)

	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s", cfg.Timeout)
	}
	if err != nil {
		result.Failures = 1
		result.Err = err
		logger.Info("spec failed", "spec", spec, "error", err, "duration", result.Duration)
	} else {
		result.Passes = 1
		logger.Info("spec passed", "spec", spec, "duration", result.Duration)
	}

	if result.Duration > cfg.Slow {
		logger.Warn("slow spec", "spec", spec, "duration", result.Duration.Round(time.Millisecond), "threshold", cfg.Slow)
	}
	return result
}

// wait consumes runner updates until the status of the current command arrives.
func (x *Executor) wait(spec string) error {
	for update := range x.runner.Updates {
		switch u := update.(type) {
		case OutputUpdate:
			if x.OnOutput != nil {
				x.OnOutput(spec, string(u))
			}
		case StatusUpdate:
			return u.Err
		}
	}
	return nil
}

func (x *Executor) environment(plan engine.Plan) []string {
	cfg := plan.Config
	sep := string(os.PathListSeparator)
	return append(os.Environ(),
		EnvStepFiles+"="+strings.Join(x.absolute(plan.Steps), sep),
		EnvSourceFiles+"="+strings.Join(x.absolute(plan.Sources), sep),
		EnvBrowsers+"="+strings.Join(cfg.Browsers, ","),
		EnvTestStrategy+"="+cfg.TestStrategy,
		EnvReporters+"="+strings.Join(cfg.Reporters, ","),
		EnvReportPath+"="+cfg.ReportPath,
		EnvRunID+"="+plan.RunID,
	)
}

func (x *Executor) absolute(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
		} else {
			out[i] = filepath.Join(x.workDir, p)
		}
	}
	return out
}
