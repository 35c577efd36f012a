package runner

import (
	"context"
	"strings"
	"testing"
	"time"
)

func collect(t *testing.T, r *Runner, within time.Duration) ([]string, StatusUpdate) {
	t.Helper()
	var output []string
	timeout := time.After(within)
	for {
		select {
		case update := <-r.Updates:
			switch u := update.(type) {
			case OutputUpdate:
				output = append(output, string(u))
			case StatusUpdate:
				return output, u
			}
		case <-timeout:
			t.Fatal("Timeout waiting for command completion")
		}
	}
}

func TestRunner(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r := NewRunner()
		r.Run(context.Background(), &Job{Command: "echo", Args: []string{"hello"}, Root: "."})

		output, status := collect(t, r, 2*time.Second)

		if status.Err != nil {
			t.Errorf("Expected nil error, got %v", status.Err)
		}
		if got := strings.Join(output, ""); !strings.Contains(got, "hello") {
			t.Errorf("Expected output to contain 'hello', got %q", got)
		}
	})

	t.Run("Stderr", func(t *testing.T) {
		r := NewRunner()
		r.Run(context.Background(), &Job{Command: "sh", Args: []string{"-c", "echo oops 1>&2"}, Root: "."})

		output, _ := collect(t, r, 2*time.Second)

		if got := strings.Join(output, ""); !strings.Contains(got, "oops") {
			t.Errorf("Expected stderr to be streamed, got %q", got)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		r := NewRunner()
		r.Run(context.Background(), &Job{Command: "sh", Args: []string{"-c", "exit 1"}, Root: "."})

		_, status := collect(t, r, 2*time.Second)

		if status.Err == nil {
			t.Error("Expected error, got nil")
		}
	})

	t.Run("Missing Binary", func(t *testing.T) {
		r := NewRunner()
		r.Run(context.Background(), &Job{Command: "lazyspec-no-such-binary", Root: "."})

		_, status := collect(t, r, 2*time.Second)

		if status.Err == nil {
			t.Error("Expected start error, got nil")
		}
	})

	t.Run("Env", func(t *testing.T) {
		r := NewRunner()
		r.Run(context.Background(), &Job{
			Command: "sh",
			Args:    []string{"-c", "echo $LAZYSPEC_RUN_ID"},
			Root:    ".",
			Env:     []string{"LAZYSPEC_RUN_ID=abc"},
		})

		output, _ := collect(t, r, 2*time.Second)

		if got := strings.Join(output, ""); got != "abc" {
			t.Errorf("Expected env to reach the command, got %q", got)
		}
	})

	t.Run("Kill", func(t *testing.T) {
		r := NewRunner()
		r.Run(context.Background(), &Job{Command: "sleep", Args: []string{"2"}, Root: "."})

		time.Sleep(100 * time.Millisecond)
		r.Kill()

		_, status := collect(t, r, 2*time.Second)

		if status.Err == nil {
			t.Error("Expected error from killed process, got nil")
		}
	})

	t.Run("Context Timeout", func(t *testing.T) {
		r := NewRunner()
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		r.Run(ctx, &Job{Command: "sleep", Args: []string{"2"}, Root: "."})

		_, status := collect(t, r, 2*time.Second)

		if status.Err == nil {
			t.Error("Expected error from timed out process, got nil")
		}
	})

	t.Run("Concurrent Run", func(t *testing.T) {
		r := NewRunner()
		r.Run(context.Background(), &Job{Command: "sleep", Args: []string{"2"}, Root: "."})

		time.Sleep(100 * time.Millisecond)

		// The first command is killed and only the second reports a status.
		r.Run(context.Background(), &Job{Command: "echo", Args: []string{"second"}, Root: "."})

		output, status := collect(t, r, 3*time.Second)

		if status.Err != nil {
			t.Errorf("Expected second command to succeed, got %v", status.Err)
		}
		if got := strings.Join(output, ""); !strings.Contains(got, "second") {
			t.Errorf("Expected output of second command, got %q", got)
		}
	})
}
