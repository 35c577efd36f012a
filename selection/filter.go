package selection

import (
	"os"
	"path/filepath"

	"github.com/jesspatton/lazyspec/gherkin"
	"github.com/jesspatton/lazyspec/rerun"
)

// AnnotationReader returns the header annotations of the spec file at path.
type AnnotationReader func(path string) (gherkin.Annotations, error)

// ReadAnnotations parses the annotations of the spec file at path.
func ReadAnnotations(path string) (gherkin.Annotations, error) {
	f, err := gherkin.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return f.Annotations, nil
}

// Filter composes the pattern, tag and rerun predicates over spec files.
type Filter struct {
	params  Params
	reruns  rerun.List
	workDir string
	read    AnnotationReader
}

// NewFilter creates a Filter. reruns is the list loaded at pipeline start and is
// not modified; workDir qualifies relative paths for rerun membership.
func NewFilter(params Params, reruns rerun.List, workDir string) *Filter {
	return &Filter{
		params:  params,
		reruns:  reruns,
		workDir: workDir,
		read:    ReadAnnotations,
	}
}

// WithAnnotationReader replaces the annotation source, mainly for tests.
func (f *Filter) WithAnnotationReader(read AnnotationReader) *Filter {
	f.read = read
	return f
}

// Match reports whether the spec file at path is selected. Annotations are only
// read when tag filtering is active; a parse failure is returned as is.
func (f *Filter) Match(path string) (bool, error) {
	if !f.params.matchPattern(path) {
		return false, nil
	}

	ok, err := f.matchTags(path)
	if err != nil || !ok {
		return false, err
	}

	return f.matchRerun(path), nil
}

func (f *Filter) matchTags(path string) (bool, error) {
	if !f.params.TagFiltering() {
		return true, nil
	}

	annotations, err := f.read(path)
	if err != nil {
		return false, err
	}

	if len(f.params.includeTags) > 0 && !annotations.HasAnyTag(f.params.includeTags) {
		return false, nil
	}
	if len(f.params.excludeTags) > 0 && annotations.HasAnyTag(f.params.excludeTags) {
		return false, nil
	}
	return true, nil
}

func (f *Filter) matchRerun(path string) bool {
	if f.reruns.Empty() {
		return true
	}
	return f.reruns.Contains(Qualify(f.workDir, path))
}

// Qualify returns path joined onto workDir unless it is already absolute.
func Qualify(workDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = wd
		}
	}
	return filepath.Join(workDir, path)
}
