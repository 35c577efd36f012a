package engine

import (
	"context"
	"time"

	"github.com/jesspatton/lazyspec/config"
	"github.com/jesspatton/lazyspec/selection"
)

// SpecStatus represents the current state of a spec file.
type SpecStatus int

const (
	// StatusIdle indicates the spec has not run yet.
	StatusIdle SpecStatus = iota
	// StatusRunning indicates the spec is currently executing.
	StatusRunning
	// StatusPass indicates the last run passed.
	StatusPass
	// StatusFail indicates the last run failed.
	StatusFail
)

func (s SpecStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusPass:
		return "pass"
	case StatusFail:
		return "fail"
	default:
		return "idle"
	}
}

// Plan is the discovery result handed to an Executor.
type Plan struct {
	RunID string
	selection.Result
	// Config is passed through untouched; executors read their settings from it.
	Config *config.Config
}

// SpecResult is the outcome of one spec file.
type SpecResult struct {
	File     string
	Failures int
	Passes   int
	Duration time.Duration
	Err      error
}

// Status reports pass or fail for a finished spec.
func (r SpecResult) Status() SpecStatus {
	if r.Failures > 0 {
		return StatusFail
	}
	return StatusPass
}

// Stats is what an Executor reports back once a Plan has finished.
type Stats struct {
	RunID    string
	Passes   int
	Failures int
	Duration time.Duration
	Results  []SpecResult
}

// Add records a spec result and updates the totals.
func (s *Stats) Add(r SpecResult) {
	s.Results = append(s.Results, r)
	s.Failures += r.Failures
	s.Passes += r.Passes
}

// FailedFiles returns the files of every result with failures, in run order.
func (s Stats) FailedFiles() []string {
	var out []string
	for _, r := range s.Results {
		if r.Failures > 0 {
			out = append(out, r.File)
		}
	}
	return out
}

// Executor runs a Plan.
type Executor interface {
	Execute(ctx context.Context, plan Plan) (Stats, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, plan Plan) (Stats, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, plan Plan) (Stats, error) {
	return f(ctx, plan)
}
