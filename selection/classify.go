package selection

import (
	"fmt"

	"github.com/jesspatton/lazyspec/filesystem"
)

// Kind is the role a discovered file plays in a run.
type Kind int

const (
	// KindSource is any file that is neither a selected spec nor a step definition.
	KindSource Kind = iota
	// KindStepDefinition matches the step naming convention.
	KindStepDefinition
	// KindSpecification is a spec file that passed the filter.
	KindSpecification
	// KindExcludedSpecification is a spec file rejected by the filter.
	KindExcludedSpecification
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindStepDefinition:
		return "step"
	case KindSpecification:
		return "specification"
	case KindExcludedSpecification:
		return "excluded"
	default:
		return "unknown"
	}
}

// ExcludedMode controls where rejected spec files are reported.
type ExcludedMode int

const (
	// FoldExcluded reports rejected specs in the source bucket.
	FoldExcluded ExcludedMode = iota
	// KeepExcluded reports rejected specs in Result.Excluded.
	KeepExcluded
)

// Entry is one classified file.
type Entry struct {
	Path string
	Kind Kind
}

// Result holds the disjoint, order-preserving buckets handed to the executor.
type Result struct {
	Specs    []string `json:"featureFiles"`
	Steps    []string `json:"stepFiles"`
	Sources  []string `json:"sourceFiles"`
	Excluded []string `json:"excludedFiles,omitempty"`
}

// NewResult returns a Result whose buckets are empty rather than nil, so they
// encode as JSON arrays.
func NewResult() Result {
	return Result{Specs: []string{}, Steps: []string{}, Sources: []string{}}
}

// Len returns the number of files across all buckets.
func (r Result) Len() int {
	return len(r.Specs) + len(r.Steps) + len(r.Sources) + len(r.Excluded)
}

// Append concatenates other's buckets after r's.
func (r *Result) Append(other Result) {
	r.Specs = append(r.Specs, other.Specs...)
	r.Steps = append(r.Steps, other.Steps...)
	r.Sources = append(r.Sources, other.Sources...)
	r.Excluded = append(r.Excluded, other.Excluded...)
}

// Classifier assigns a Kind to each candidate file.
type Classifier struct {
	filter *Filter
}

// NewClassifier creates a Classifier that consults filter for spec files.
func NewClassifier(filter *Filter) *Classifier {
	return &Classifier{filter: filter}
}

// Classify applies the precedence: selected spec, step definition, rejected
// spec, source. The filter runs during classification so a rejected spec can
// still be claimed by the step convention.
func (c *Classifier) Classify(path string) (Kind, error) {
	spec := filesystem.IsSpecFile(path)
	if spec {
		ok, err := c.filter.Match(path)
		if err != nil {
			return KindSource, fmt.Errorf("failed to filter %s: %w", path, err)
		}
		if ok {
			return KindSpecification, nil
		}
	}
	if filesystem.IsStepFile(path) {
		return KindStepDefinition, nil
	}
	if spec {
		return KindExcludedSpecification, nil
	}
	return KindSource, nil
}

// ClassifyAll classifies paths in order and stops at the first error.
func (c *Classifier) ClassifyAll(paths []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		kind, err := c.Classify(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Path: p, Kind: kind})
	}
	return entries, nil
}

// Bucket groups entries by kind, preserving their order.
func Bucket(entries []Entry, mode ExcludedMode) Result {
	r := NewResult()
	for _, e := range entries {
		switch e.Kind {
		case KindSpecification:
			r.Specs = append(r.Specs, e.Path)
		case KindStepDefinition:
			r.Steps = append(r.Steps, e.Path)
		case KindExcludedSpecification:
			if mode == KeepExcluded {
				r.Excluded = append(r.Excluded, e.Path)
			} else {
				r.Sources = append(r.Sources, e.Path)
			}
		default:
			r.Sources = append(r.Sources, e.Path)
		}
	}
	return r
}
