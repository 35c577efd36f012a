package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParams(t *testing.T) {
	include := []string{"smoke", " @fast ", ""}
	p, err := NewParams(Options{
		Pattern:     "login",
		Invert:      true,
		IncludeTags: include,
		ExcludeTags: []string{},
		RerunDir:    " reports ",
	})
	require.NoError(t, err)

	assert.Equal(t, "login", p.Pattern())
	assert.True(t, p.Invert())
	assert.Equal(t, []string{"smoke", "fast"}, p.IncludeTags())
	assert.Nil(t, p.ExcludeTags(), "empty exclude list is unset")
	assert.Equal(t, "reports", p.RerunDir())
	assert.True(t, p.RerunEnabled())
	assert.True(t, p.TagFiltering())

	// callers cannot mutate the params through their inputs or accessors
	include[0] = "changed"
	tags := p.IncludeTags()
	tags[1] = "changed"
	assert.Equal(t, []string{"smoke", "fast"}, p.IncludeTags())
}

func TestNewParams_Defaults(t *testing.T) {
	p, err := NewParams(Options{})
	require.NoError(t, err)

	assert.False(t, p.RerunEnabled())
	assert.False(t, p.TagFiltering())
	assert.True(t, p.matchPattern("anything/at/all.feature"))
}

func TestNewParams_InvalidPattern(t *testing.T) {
	_, err := NewParams(Options{Pattern: "login("})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern))
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		invert  bool
		path    string
		want    bool
	}{
		{"empty matches", "", false, "tests/a.feature", true},
		{"empty inverted matches nothing", "", true, "tests/a.feature", false},
		{"substring match", "login", false, "tests/login.feature", true},
		{"no match", "login", false, "tests/logout.feature", false},
		{"inverted no match", "login", true, "tests/logout.feature", true},
		{"inverted match", "login", true, "tests/login.feature", false},
		{"regex on directory", "^tests/admin/", false, "tests/admin/users.feature", true},
		{"regex anchors", "^admin", false, "tests/admin/users.feature", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParams(Options{Pattern: tt.pattern, Invert: tt.invert})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.matchPattern(tt.path))
		})
	}
}
