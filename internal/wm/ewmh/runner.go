package ewmh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Runner executes host commands.
type Runner interface {
	// Output runs a command to completion and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream starts a long-running command and returns its stdout.
	// Closing the reader stops the command.
	Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Output runs the command and returns stdout. Stderr is folded into the
// error on failure.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Stream starts the command with its stdout piped back to the caller.
func (r *ExecRunner) Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe %s stdout: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return &streamCloser{ReadCloser: stdout, cmd: cmd}, nil
}

type streamCloser struct {
	io.ReadCloser
	cmd  *exec.Cmd
	once sync.Once
}

func (s *streamCloser) Close() error {
	s.once.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.cmd.Wait()
	})
	return nil
}

// FakeRunner implements Runner with canned responses for testing.
// Responses are keyed by the full command line, e.g. "wmctrl -l".
type FakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	streams map[string]string
	calls   []string
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
		streams: make(map[string]string),
	}
}

// SetOutput sets the stdout returned for a command line.
func (r *FakeRunner) SetOutput(cmdline, out string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[cmdline] = out
}

// SetError makes a command line fail.
func (r *FakeRunner) SetError(cmdline string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[cmdline] = err
}

// SetStream sets the content streamed for a command line.
func (r *FakeRunner) SetStream(cmdline, out string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[cmdline] = out
}

// Calls returns every command line run so far.
func (r *FakeRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Output returns the canned output. Unknown command lines succeed with
// empty output.
func (r *FakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmdline)
	if err, ok := r.errs[cmdline]; ok {
		return nil, err
	}
	return []byte(r.outputs[cmdline]), nil
}

// Stream returns the canned stream content.
func (r *FakeRunner) Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmdline)
	if err, ok := r.errs[cmdline]; ok {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(r.streams[cmdline])), nil
}
