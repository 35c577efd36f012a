package filesystem

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{
		"suites/web/login.feature",
		"suites/api/users.feature",
		"other/x.js",
	})

	var buf bytes.Buffer
	r := NewResolver(slog.New(slog.NewTextHandler(&buf, nil)))

	t.Run("existing directory", func(t *testing.T) {
		target := filepath.Join(tmpDir, "suites")
		got := r.Resolve(target)
		if !reflect.DeepEqual(got, []string{target}) {
			t.Errorf("Resolve(%q) = %v", target, got)
		}
	})

	t.Run("glob pattern", func(t *testing.T) {
		target := filepath.Join(tmpDir, "suites", "*")
		got := r.Resolve(target)
		want := []string{
			filepath.Join(tmpDir, "suites", "api"),
			filepath.Join(tmpDir, "suites", "web"),
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve(%q) = %v, want %v", target, got, want)
		}
	})

	t.Run("unresolved target warns", func(t *testing.T) {
		buf.Reset()
		target := filepath.Join(tmpDir, "nope")
		if got := r.Resolve(target); len(got) != 0 {
			t.Errorf("expected no paths, got %v", got)
		}
		out := buf.String()
		if !strings.Contains(out, "level=WARN") || !strings.Contains(out, target) {
			t.Errorf("expected warning naming %s, got %q", target, out)
		}
	})
}

func TestRelativeTo(t *testing.T) {
	tests := []struct {
		workDir, path, want string
	}{
		{"/work", "/work/tests/a.feature", filepath.Join("tests", "a.feature")},
		{"/work", "/other/a.feature", "/other/a.feature"},
		{"/work", "/work/..hidden/a.feature", filepath.Join("..hidden", "a.feature")},
		{"/work", "tests/a.feature", "tests/a.feature"},
		{"", "/work/a.feature", "/work/a.feature"},
	}
	for _, tt := range tests {
		if got := RelativeTo(tt.workDir, tt.path); got != tt.want {
			t.Errorf("RelativeTo(%q, %q) = %q, want %q", tt.workDir, tt.path, got, tt.want)
		}
	}
}
