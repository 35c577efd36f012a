// Package selection decides which discovered files run and in which role.
package selection

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned when the match pattern is not a valid regular expression.
var ErrInvalidPattern = errors.New("invalid match pattern")

// Options are the caller-supplied selection values.
type Options struct {
	Pattern     string
	Invert      bool
	IncludeTags []string // nil or empty disables include filtering
	ExcludeTags []string // nil or empty disables exclude filtering
	RerunDir    string   // empty disables rerun tracking
}

// Params is the immutable form of Options, built once per invocation.
type Params struct {
	pattern     string
	re          *regexp.Regexp
	invert      bool
	includeTags []string
	excludeTags []string
	rerunDir    string
}

// NewParams validates opts and compiles the pattern.
func NewParams(opts Options) (Params, error) {
	re, err := regexp.Compile(opts.Pattern)
	if err != nil {
		return Params{}, fmt.Errorf("%w %q: %v", ErrInvalidPattern, opts.Pattern, err)
	}
	return Params{
		pattern:     opts.Pattern,
		re:          re,
		invert:      opts.Invert,
		includeTags: cleanTags(opts.IncludeTags),
		excludeTags: cleanTags(opts.ExcludeTags),
		rerunDir:    strings.TrimSpace(opts.RerunDir),
	}, nil
}

func cleanTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "@")
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Pattern returns the raw match pattern.
func (p Params) Pattern() string { return p.pattern }

// Invert reports whether pattern results are negated.
func (p Params) Invert() bool { return p.invert }

// IncludeTags returns a copy of the include tags, nil when unset.
func (p Params) IncludeTags() []string { return copyTags(p.includeTags) }

// ExcludeTags returns a copy of the exclude tags, nil when unset.
func (p Params) ExcludeTags() []string { return copyTags(p.excludeTags) }

// RerunDir returns the rerun directory, empty when rerun tracking is off.
func (p Params) RerunDir() string { return p.rerunDir }

// RerunEnabled reports whether a rerun directory was given.
func (p Params) RerunEnabled() bool { return p.rerunDir != "" }

// TagFiltering reports whether spec files must be parsed for annotations.
func (p Params) TagFiltering() bool {
	return len(p.includeTags) > 0 || len(p.excludeTags) > 0
}

func (p Params) matchPattern(path string) bool {
	// zero Params (never built through NewParams) match everything
	matched := p.re == nil || p.re.MatchString(path)
	return matched != p.invert
}

func copyTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	return append([]string(nil), tags...)
}

func (p Params) String() string {
	return fmt.Sprintf("match=%q invert=%t tags=%v exclude-tags=%v rerun=%q",
		p.pattern, p.invert, p.includeTags, p.excludeTags, p.rerunDir)
}
