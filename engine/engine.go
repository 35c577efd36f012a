// Package engine wires discovery, filtering and rerun tracking into one
// pipeline and hands the result to an Executor.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jesspatton/lazyspec/config"
	"github.com/jesspatton/lazyspec/filesystem"
	"github.com/jesspatton/lazyspec/rerun"
	"github.com/jesspatton/lazyspec/selection"
)

// Options tunes an Engine. The zero value is usable.
type Options struct {
	// WorkDir qualifies rerun paths; defaults to the process working directory.
	WorkDir string

	// ExcludedMode decides where rejected specs are reported.
	ExcludedMode selection.ExcludedMode

	// AnnotationReader replaces the default feature header parser.
	AnnotationReader selection.AnnotationReader

	Logger *slog.Logger
}

// Engine manages one discovery/execution pipeline.
type Engine struct {
	cfg      *config.Config
	params   selection.Params
	executor Executor

	resolver *filesystem.Resolver
	scanner  *filesystem.Scanner
	ignorer  *filesystem.Ignorer
	tracker  *rerun.Tracker

	workDir string
	mode    selection.ExcludedMode
	read    selection.AnnotationReader
	logger  *slog.Logger
}

// New creates an Engine from a validated configuration.
func New(cfg *config.Config, executor Executor, opts Options) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine: nil config")
	}
	params, err := cfg.Selection()
	if err != nil {
		return nil, err
	}

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	read := opts.AnnotationReader
	if read == nil {
		read = selection.ReadAnnotations
	}

	ignorer := filesystem.NewIgnorer(cfg.Ignore)
	e := &Engine{
		cfg:      cfg,
		params:   params,
		executor: executor,
		resolver: filesystem.NewResolver(logger),
		scanner:  filesystem.NewScanner(ignorer),
		ignorer:  ignorer,
		workDir:  workDir,
		mode:     opts.ExcludedMode,
		read:     read,
		logger:   logger.With("component", "engine"),
	}
	if params.RerunEnabled() {
		e.tracker = rerun.NewTracker(workDir, params.RerunDir(), logger)
	}
	return e, nil
}

// Params returns the selection parameters of this engine.
func (e *Engine) Params() selection.Params {
	return e.params
}

// Ignorer returns the ignore rules used for scanning.
func (e *Engine) Ignorer() *filesystem.Ignorer {
	return e.ignorer
}

// Roots applies the default root and resolves every target to existing paths.
func (e *Engine) Roots(targets []string) []string {
	if len(targets) == 0 {
		targets = []string{config.DefaultRoot}
	}
	var roots []string
	for _, target := range targets {
		roots = append(roots, e.resolver.Resolve(target)...)
	}
	return roots
}

// Discover resolves, scans and classifies every target. The rerun list is
// loaded once for the whole call.
func (e *Engine) Discover(targets []string) (selection.Result, error) {
	reruns, err := e.loadReruns()
	if err != nil {
		return selection.Result{}, err
	}

	filter := selection.NewFilter(e.params, reruns, e.workDir).WithAnnotationReader(e.read)
	classifier := selection.NewClassifier(filter)

	result := selection.NewResult()
	for _, root := range e.Roots(targets) {
		files, err := e.scanner.Scan(root)
		if err != nil {
			return selection.Result{}, err
		}
		entries, err := classifier.ClassifyAll(files)
		if err != nil {
			return selection.Result{}, err
		}
		result.Append(selection.Bucket(entries, e.mode))
	}

	e.dump("discovery result", result)
	e.dump("configuration", e.cfg)
	return result, nil
}

// Run discovers, executes and records reruns. A rerun write failure is
// returned together with the stats of the completed run.
func (e *Engine) Run(ctx context.Context, targets []string) (Stats, error) {
	start := time.Now()

	result, err := e.Discover(targets)
	if err != nil {
		return Stats{}, err
	}

	plan := Plan{
		RunID:  uuid.NewString(),
		Result: result,
		Config: e.cfg,
	}
	logger := e.logger.With("run_id", plan.RunID)
	logger.Info("starting run", "specs", len(plan.Specs), "steps", len(plan.Steps), "sources", len(plan.Sources))

	stats, err := e.executor.Execute(ctx, plan)
	if err != nil {
		return stats, fmt.Errorf("execution failed: %w", err)
	}
	stats.RunID = plan.RunID
	if stats.Duration == 0 {
		stats.Duration = time.Since(start)
	}
	logger.Info("run finished", "passes", stats.Passes, "failures", stats.Failures, "duration", stats.Duration)

	if e.tracker != nil {
		if err := e.persist(stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (e *Engine) loadReruns() (rerun.List, error) {
	if e.tracker == nil {
		return nil, nil
	}
	list, err := e.tracker.Load()
	if err != nil {
		return nil, err
	}
	if !list.Empty() {
		e.logger.Debug("restricting to previous failures", "count", len(list))
	}
	return list, nil
}

func (e *Engine) persist(stats Stats) error {
	failed := stats.FailedFiles()
	qualified := make([]string, 0, len(failed))
	for _, f := range failed {
		qualified = append(qualified, selection.Qualify(e.workDir, f))
	}
	if err := e.tracker.Persist(qualified); err != nil {
		return fmt.Errorf("failed to record reruns: %w", err)
	}
	return nil
}

func (e *Engine) dump(msg string, v any) {
	if !e.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		e.logger.Debug(msg, "error", err)
		return
	}
	e.logger.Debug(msg, "value", string(data))
}
