package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesspatton/lazyspec/config"
	"github.com/jesspatton/lazyspec/engine"
	"github.com/jesspatton/lazyspec/selection"
)

// setupProject writes the login/logout fixture into a temp directory and makes
// it the working directory.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"tests/login.feature":  "@smoke\nFeature: Login\n\nScenario: ok\n  Given a user\n  When they log in\n",
		"tests/logout.feature": "@wip\nFeature: Logout\n\nScenario: ok\n  Given a session\n",
		"tests/login-steps.js": "module.exports = {};\n",
		"tests/helpers.js":     "module.exports = {};\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "watch", "list", "generate"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestListCommand(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, "list", "--tags", "smoke")
	require.NoError(t, err)

	assert.Contains(t, out, "Features")
	assert.Contains(t, out, filepath.Join("tests", "login.feature"))
	assert.Contains(t, out, filepath.Join("tests", "login-steps.js"))

	features := out[:strings.Index(out, "Step definitions")]
	assert.NotContains(t, features, "logout.feature")
	sources := out[strings.Index(out, "Sources"):]
	assert.Contains(t, sources, "logout.feature")
	assert.NotContains(t, out, "Excluded")
}

func TestListCommand_KeepExcludedJSON(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, "list", "-E", "wip", "--keep-excluded", "--json")
	require.NoError(t, err)

	var result selection.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, []string{filepath.Join("tests", "login.feature")}, result.Specs)
	assert.Equal(t, []string{filepath.Join("tests", "logout.feature")}, result.Excluded)
	assert.Equal(t, []string{filepath.Join("tests", "helpers.js")}, result.Sources)
}

func TestListCommand_JSONEmptyBuckets(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, "list", "-T", "nothing", "--json")
	require.NoError(t, err)

	assert.Contains(t, out, `"featureFiles": []`)
	assert.NotContains(t, out, "null")
}

func TestListCommand_InvalidPattern(t *testing.T) {
	setupProject(t)

	_, _, err := execute(t, "list", "--match", "([")
	assert.ErrorIs(t, err, selection.ErrInvalidPattern)
}

func TestListCommand_ConfigFile(t *testing.T) {
	dir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lazyspec.yml"), []byte("match: logout\n"), 0644))

	out, _, err := execute(t, "list", "--json")
	require.NoError(t, err)

	var result selection.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{filepath.Join("tests", "logout.feature")}, result.Specs)

	// flags win over the file
	out, _, err = execute(t, "list", "--json", "--match", "login")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{filepath.Join("tests", "login.feature")}, result.Specs)
}

func TestRunCommand_FailuresAndRerun(t *testing.T) {
	dir := setupProject(t)
	script := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"running $1\"\ncase \"$1\" in *logout*) exit 1;; esac\n"), 0755))

	out, _, err := execute(t, "run", "--rerun", "reports", "--command", "sh "+script+" <path>")
	assert.ErrorIs(t, err, ErrTestsFailed)

	assert.Contains(t, out, "running "+filepath.Join("tests", "login.feature"))
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "Failed specs:")

	data, err := os.ReadFile(filepath.Join(dir, "reports", "rerun.dat"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tests", "logout.feature"), string(data))

	// Only the failure runs again; once it passes the restriction is lifted.
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"running $1\"\n"), 0755))
	out, _, err = execute(t, "run", "--rerun", "reports", "--command", "sh "+script+" <path>")
	require.NoError(t, err)
	assert.NotContains(t, out, "running "+filepath.Join("tests", "login.feature"))
	assert.Contains(t, out, "running "+filepath.Join("tests", "logout.feature"))

	data, err = os.ReadFile(filepath.Join(dir, "reports", "rerun.dat"))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	setupProject(t)

	_, _, err := execute(t, "run", "--test-strategy", "random")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTestsFailed)
}

func TestRunCommand_NothingSelected(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, "run", "--match", "nothing-matches-this")
	require.NoError(t, err)
	assert.Contains(t, out, "No specs selected.")
}

func TestGenerateCommand(t *testing.T) {
	dir := setupProject(t)

	out, _, err := execute(t, "generate", filepath.Join("tests", "login.feature"))
	require.NoError(t, err)
	assert.Contains(t, out, `.given("a user"`)
	assert.Contains(t, out, `.when("they log in"`)

	target := filepath.Join(dir, "steps.js")
	_, _, err = execute(t, "generate", "-o", target, filepath.Join("tests", "login.feature"))
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestGenerateCommand_Malformed(t *testing.T) {
	dir := setupProject(t)
	bad := filepath.Join(dir, "bad.feature")
	require.NoError(t, os.WriteFile(bad, []byte("nothing here\n"), 0644))

	_, _, err := execute(t, "generate", bad)
	assert.Error(t, err)
}

func TestWatchLoop_CollapsesChangesDuringRun(t *testing.T) {
	dir := setupProject(t)

	changes := make(chan string, 10)
	runs := 0
	exec := engine.ExecutorFunc(func(context.Context, engine.Plan) (engine.Stats, error) {
		runs++
		if runs == 1 {
			for _, name := range []string{"login.feature", "logout.feature", "helpers.js"} {
				changes <- filepath.Join(dir, "tests", name)
			}
		}
		return engine.Stats{}, nil
	})
	e, err := engine.New(config.DefaultConfig(), exec, engine.Options{WorkDir: dir})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, watchLoop(ctx, e, nil, changes, &out, dir, slog.New(slog.DiscardHandler)))

	assert.Equal(t, 2, runs, "changes queued during a run trigger exactly one follow-up run")
	assert.Empty(t, changes)
}

func TestDrain(t *testing.T) {
	changes := make(chan string, 3)
	assert.Equal(t, 0, drain(changes))

	changes <- "a.feature"
	changes <- "b.feature"
	assert.Equal(t, 2, drain(changes))
	assert.Empty(t, changes)

	close(changes)
	assert.Equal(t, 0, drain(changes))
}

func TestWatchDirs(t *testing.T) {
	dir := setupProject(t)
	tests := filepath.Join(dir, "tests")

	got := watchDirs([]string{
		tests,
		filepath.Join(tests, "login.feature"),
		filepath.Join(dir, "missing"),
	})
	assert.Equal(t, []string{tests}, got)
}

func TestFlagsFrom(t *testing.T) {
	cmd := NewRunCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-t", "2500", "--tags", "a,b", "-f"}))

	f := flagsFrom(cmd)
	require.NotNil(t, f.Timeout)
	assert.Equal(t, "2.5s", f.Timeout.String())
	require.NotNil(t, f.Tags)
	assert.Equal(t, []string{"a", "b"}, *f.Tags)
	require.NotNil(t, f.FailFast)
	assert.True(t, *f.FailFast)

	assert.Nil(t, f.Slow, "unset flags stay nil")
	assert.Nil(t, f.Match)
	assert.Nil(t, f.Debug, "flags the command lacks stay nil")
}
