package selection

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jesspatton/lazyspec/gherkin"
	"github.com/jesspatton/lazyspec/rerun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticAnnotations(byPath map[string]gherkin.Annotations, calls *int) AnnotationReader {
	return func(path string) (gherkin.Annotations, error) {
		*calls++
		return byPath[path], nil
	}
}

func mustParams(t *testing.T, opts Options) Params {
	t.Helper()
	p, err := NewParams(opts)
	require.NoError(t, err)
	return p
}

func TestFilter_Tags(t *testing.T) {
	annotations := map[string]gherkin.Annotations{
		"smoke.feature": {"smoke": "true"},
		"plain.feature": {},
		"both.feature":  {"smoke": "true", "wip": "true"},
	}

	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"include hit", []string{"smoke"}, nil, "smoke.feature", true},
		{"include miss", []string{"smoke"}, nil, "plain.feature", false},
		{"include any of", []string{"wip", "smoke"}, nil, "smoke.feature", true},
		{"exclude hit", nil, []string{"smoke"}, "smoke.feature", false},
		{"exclude wins over include", []string{"smoke"}, []string{"smoke"}, "smoke.feature", false},
		{"exclude miss", nil, []string{"wip"}, "plain.feature", true},
		{"include and exclude", []string{"smoke"}, []string{"wip"}, "both.feature", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			f := NewFilter(mustParams(t, Options{IncludeTags: tt.include, ExcludeTags: tt.exclude}), nil, "/work").
				WithAnnotationReader(staticAnnotations(annotations, &calls))

			got, err := f.Match(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestFilter_NoTagsNeverParses(t *testing.T) {
	calls := 0
	f := NewFilter(mustParams(t, Options{Pattern: "a"}), nil, "/work").
		WithAnnotationReader(staticAnnotations(nil, &calls))

	ok, err := f.Match("a.feature")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, calls)
}

func TestFilter_PatternShortCircuitsParse(t *testing.T) {
	f := NewFilter(mustParams(t, Options{Pattern: "login", IncludeTags: []string{"smoke"}}), nil, "/work").
		WithAnnotationReader(func(string) (gherkin.Annotations, error) {
			return nil, errors.New("should not be called")
		})

	ok, err := f.Match("logout.feature")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilter_ParseErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.feature")
	require.NoError(t, os.WriteFile(bad, []byte("not a feature\n"), 0644))

	f := NewFilter(mustParams(t, Options{IncludeTags: []string{"smoke"}}), nil, dir)
	_, err := f.Match(bad)
	require.Error(t, err)

	var pe *gherkin.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestFilter_Rerun(t *testing.T) {
	reruns := rerun.List{"/abs/a.feature"}
	f := NewFilter(mustParams(t, Options{RerunDir: "rerun"}), reruns, "/abs")

	ok, err := f.Match("/abs/a.feature")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match("/abs/b.feature")
	require.NoError(t, err)
	assert.False(t, ok)

	// relative paths are qualified against the working directory
	ok, err = f.Match("a.feature")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilter_EmptyRerunListIsUnrestricted(t *testing.T) {
	for _, reruns := range []rerun.List{nil, {}} {
		f := NewFilter(mustParams(t, Options{RerunDir: "rerun"}), reruns, "/abs")
		for _, path := range []string{"/abs/a.feature", "/abs/b.feature"} {
			ok, err := f.Match(path)
			require.NoError(t, err)
			assert.True(t, ok, path)
		}
	}
}

func TestQualify(t *testing.T) {
	assert.Equal(t, filepath.Join("/work", "tests", "a.feature"), Qualify("/work", "tests/a.feature"))
	assert.Equal(t, filepath.Clean("/abs/x/../a.feature"), Qualify("/work", "/abs/x/../a.feature"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "a.feature"), Qualify("", "a.feature"))
}
