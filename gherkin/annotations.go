package gherkin

import "strings"

// Annotations maps lower-cased annotation names to their raw values.
// A bare "@name" is stored as "true".
type Annotations map[string]string

// Truthy reports whether name is present with a non-empty value. Any text,
// "false" included, counts as set.
func (a Annotations) Truthy(name string) bool {
	return a[strings.ToLower(name)] != ""
}

// HasAnyTag reports whether at least one of tags is truthy in a.
func (a Annotations) HasAnyTag(tags []string) bool {
	for _, tag := range tags {
		if a.Truthy(tag) {
			return true
		}
	}
	return false
}
