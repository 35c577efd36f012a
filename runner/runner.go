package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// Update is a message emitted by a Runner.
type Update interface {
	isUpdate()
}

// OutputUpdate is one line of command output.
type OutputUpdate string

// StatusUpdate reports that the command finished. Err is nil on a zero exit.
type StatusUpdate struct {
	Err error
}

func (OutputUpdate) isUpdate() {}
func (StatusUpdate) isUpdate() {}

// waitDelay bounds how long Wait blocks on pipes held open by orphaned children.
const waitDelay = 2 * time.Second

// Runner executes one spec command at a time and streams its output.
type Runner struct {
	mu      sync.Mutex
	currCmd *exec.Cmd
	cancel  context.CancelFunc
	Updates chan Update
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{
		Updates: make(chan Update, 100),
	}
}

// Run starts job and returns immediately. Output lines arrive on Updates,
// followed by exactly one StatusUpdate. A running command is killed first and
// its status is dropped.
func (r *Runner) Run(ctx context.Context, job *Job) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cmd := exec.CommandContext(ctx, job.Command, job.Args...)
	cmd.Dir = job.Root
	cmd.Env = job.Env
	cmd.WaitDelay = waitDelay
	prepareCommand(cmd)

	r.currCmd = cmd
	r.mu.Unlock()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.fail(cmd, fmt.Errorf("error creating stdout pipe: %w", err))
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.fail(cmd, fmt.Errorf("error creating stderr pipe: %w", err))
		return
	}

	if err := cmd.Start(); err != nil {
		r.fail(cmd, fmt.Errorf("error starting %s: %w", job.Command, err))
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		streamReader(stdout, r.Updates)
	}()
	go func() {
		defer wg.Done()
		streamReader(stderr, r.Updates)
	}()

	go func() {
		// Drain both pipes before Wait closes them.
		wg.Wait()
		err := cmd.Wait()
		if r.release(cmd) {
			r.Updates <- StatusUpdate{Err: err}
		}
	}()
}

// release clears cmd if it is still the current command and reports whether it was.
func (r *Runner) release(cmd *exec.Cmd) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currCmd != cmd {
		return false
	}
	r.currCmd = nil
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return true
}

func (r *Runner) fail(cmd *exec.Cmd, err error) {
	if r.release(cmd) {
		r.Updates <- OutputUpdate(err.Error())
		r.Updates <- StatusUpdate{Err: err}
	}
}

func streamReader(rd io.Reader, out chan<- Update) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- OutputUpdate(scanner.Text())
	}
}

// Kill stops the current command, if any.
func (r *Runner) Kill() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}
