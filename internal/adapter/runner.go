package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrExecution is returned when an external command cannot be started or exits non-zero
var ErrExecution = errors.New("command execution failed")

// Runner executes an OS command and returns its standard output split into lines.
// Implementations never parse output; that is left to the caller.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]string, error)
}

// ExecRunner runs commands through os/exec
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner creates a runner that bounds each command by timeout (0 = no bound)
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

// Run executes name with args and returns stdout lines with trailing carriage returns removed
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	// children that inherit stdout must not hold Wait open after a kill
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%w: %s: %v: %s", ErrExecution, name, err, msg)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrExecution, name, err)
	}

	return SplitLines(output), nil
}

// SplitLines splits raw command output into lines, dropping trailing '\r'
func SplitLines(output []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines
}

// StaticRunner replays canned output keyed by command name. Useful for
// running discovery against captured command output. Safe for concurrent use.
type StaticRunner struct {
	Outputs map[string][]string
	Errors  map[string]error

	mu    sync.Mutex
	calls []string
}

// Run returns the canned lines for name, or ErrExecution when none are registered
func (r *StaticRunner) Run(_ context.Context, name string, args ...string) ([]string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	r.mu.Unlock()

	if err, ok := r.Errors[name]; ok {
		return nil, err
	}
	lines, ok := r.Outputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no output registered", ErrExecution, name)
	}
	return lines, nil
}

// Calls returns the command lines run so far, in order
func (r *StaticRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
