package gherkin

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepDefinitions(t *testing.T) {
	f, err := ParseFeature([]byte(loginFeature))
	require.NoError(t, err)

	defs := StepDefinitions(f)
	want := []StepDefinition{
		{"given", "the app is running"},
		{"given", "I open the login page"},
		{"when", `I submit "bob" and "secret"`},
		{"then", "I see the dashboard"},
		{"then", "I see a welcome banner"},
		{"when", `I submit "<user>" and "<pass>"`},
		{"then", "I see an error"},
	}
	assert.Equal(t, want, defs)
}

func TestGenerateLibrary(t *testing.T) {
	f, err := ParseFeature([]byte("Feature: Bottles\nScenario: drop\n  Given 100 green bottles\n  When 1 falls\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, GenerateLibrary(&buf, f))

	out := buf.String()
	assert.Contains(t, out, `step definitions for "Bottles"`)
	assert.Contains(t, out, `.given("100 green bottles", function(next) {`)
	assert.Contains(t, out, `.when("1 falls", function(next) {`)
	assert.Contains(t, out, "English.library()")
}

func TestGenerateLibrary_TitleClosingComment(t *testing.T) {
	f, err := ParseFeature([]byte("Feature: Globs like */x\nScenario: s\n  Given a step\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, GenerateLibrary(&buf, f))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "*/"), "only the header comment may close")
	assert.Contains(t, out, `step definitions for "Globs like * /x"`)
}
