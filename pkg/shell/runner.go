/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: runner.go
Description: External tool execution for shell based guessers. Runs a command with an
explicit timeout, captures stdout and stderr, and reports non-zero exits, missing tools
and timeouts as distinguishable errors.
*/

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single tool invocation
const DefaultTimeout = 10 * time.Second

var (
	// ErrTimeout is returned when a tool does not finish within the runner timeout
	ErrTimeout = errors.New("tool timed out")
	// ErrNotFound is returned when a tool cannot be resolved
	ErrNotFound = errors.New("tool not found")
)

// ExitError reports a tool that ran but exited non-zero
type ExitError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Output is the captured result of a tool run
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// OK reports a zero exit status
func (o *Output) OK() bool {
	return o.ExitCode == 0
}

// Runner executes tools. The zero value uses DefaultTimeout and the standard logger.
type Runner struct {
	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// NewRunner creates a runner with the given timeout
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

func (r *Runner) timeout() time.Duration {
	if r == nil || r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Runner) logger() logrus.FieldLogger {
	if r == nil || r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

// Available reports whether tool is an executable file or resolvable on PATH
func (r *Runner) Available(tool string) bool {
	if tool == "" {
		return false
	}
	if strings.ContainsRune(tool, os.PathSeparator) {
		info, err := os.Stat(tool)
		return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
	}
	_, err := exec.LookPath(tool)
	return err == nil
}

// Run executes tool with args. A non-zero exit is not an error here; callers
// decide through Output.OK. Trailing newlines are trimmed from stdout.
func (r *Runner) Run(ctx context.Context, tool string, args ...string) (*Output, error) {
	if !r.Available(tool) {
		return nil, fmt.Errorf("%s: %w", tool, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	out := &Output{
		Stdout:   strings.TrimRight(stdout.String(), "\r\n"),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	switch ctx.Err() {
	case context.DeadlineExceeded:
		return nil, fmt.Errorf("%s after %v: %w", tool, r.timeout(), ErrTimeout)
	case context.Canceled:
		return nil, fmt.Errorf("%s interrupted: %w", tool, context.Canceled)
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	case err != nil:
		return nil, fmt.Errorf("failed to run %s: %w", tool, err)
	}

	r.logger().WithFields(logrus.Fields{
		"tool":      tool,
		"args":      args,
		"exit_code": out.ExitCode,
		"duration":  out.Duration,
	}).Debug("Tool executed")

	return out, nil
}

// MustSucceed converts a non-zero exit into an *ExitError
func (o *Output) MustSucceed(tool string) error {
	if o.OK() {
		return nil
	}
	return &ExitError{Tool: tool, ExitCode: o.ExitCode, Stderr: o.Stderr}
}
