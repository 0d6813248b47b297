package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Cmd describes a single external command invocation. Args are passed to the
// process as-is; nothing is interpreted by a shell.
type Cmd struct {
	Path string
	Args []string
	Env  map[string]string // additional env vars
	Dir  string            // working directory
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Runner executes commands synchronously and captures their stdout.
// The zero value runs without a timeout and logs nowhere.
type Runner struct {
	// Timeout bounds each invocation. Zero means wait indefinitely.
	Timeout time.Duration
	Log     zerolog.Logger
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Cmd, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Run executes c and returns its stdout with surrounding whitespace removed.
// Bytes that are not valid UTF-8 are dropped.
func (r *Runner) Run(ctx context.Context, c Cmd) (string, error) {
	if c.Path == "" {
		return "", errors.New("empty command")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if r.Timeout > 0 {
		// grandchildren holding stdout open must not outlive the deadline
		cmd.WaitDelay = time.Second
	}
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		// inherit environment
		cmd.Env = os.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Log.Debug().Str("cmd", c.String()).Msg("exec")
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return "", fmt.Errorf("command %q: %w", c.String(), ctxErr)
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", &ExitError{Cmd: c.String(), Code: ee.ExitCode(), Stderr: clean(stderr.Bytes())}
		}
		return "", fmt.Errorf("command %q: %w", c.String(), err)
	}
	return clean(stdout.Bytes()), nil
}

// Output is Run with failures logged and swallowed: ok is false when the
// command could not be started, timed out, or exited non-zero.
func (r *Runner) Output(ctx context.Context, c Cmd) (string, bool) {
	out, err := r.Run(ctx, c)
	if err != nil {
		r.Log.Error().Err(err).Str("cmd", c.String()).Msg("error running command")
		return "", false
	}
	return out, true
}

func clean(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), ""))
}
