// Package runner executes external commands for the installation steps.
//
// Every invocation is synchronous. Failures are classified as either a
// LaunchError (the executable could not be started) or an ExitError (the
// process ran and reported a non-zero status). Callers opt into ignoring
// exit status per invocation; nothing else is swallowed.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"ckan-devstaller/internal/logger"
)

// Cmd is a program name plus its arguments. No shell is involved.
type Cmd struct {
	Name string
	Args []string
}

// Command builds a Cmd.
func Command(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

// String renders the command the way an operator would type it.
func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Options tune a single invocation.
type Options struct {
	// IgnoreExitStatus turns a non-zero exit into a successful Result carrying the code.
	IgnoreExitStatus bool
	// Stdin, when non-nil, is fed to the process instead of the operator's terminal.
	Stdin []byte
	// Env entries are layered over the inherited environment.
	Env map[string]string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Capture collects stdout into Result.Stdout instead of streaming it.
	Capture bool
}

// Result is what a finished process leaves behind.
type Result struct {
	Stdout   []byte
	ExitCode int
}

// String returns the captured stdout as text.
func (r Result) String() string {
	return string(r.Stdout)
}

// Runner runs one external command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Cmd, opts Options) (Result, error)
}

// LaunchError reports a command that could not be spawned at all.
type LaunchError struct {
	Cmd Cmd
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Cmd.Name, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError reports a command that ran and exited with a non-zero status.
type ExitError struct {
	Cmd    Cmd
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Cmd.String(), e.Code)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// IsLaunchError reports whether err is, or wraps, a LaunchError.
func IsLaunchError(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}

// ExitCode returns the exit status carried by err, or -1 when err is not an ExitError.
func ExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return -1
}

// stderrTailSize bounds how much stderr is kept for error messages.
const stderrTailSize = 4096

// ExecRunner runs commands with os/exec, wiring stdout and stderr to the operator.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns an ExecRunner bound to the process' standard streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes cmd and blocks until it exits or ctx is cancelled.
func (r *ExecRunner) Run(ctx context.Context, cmd Cmd, opts Options) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = opts.Dir
	// Extra variables are layered over the inherited environment
	if len(opts.Env) > 0 {
		c.Env = append(os.Environ(), envList(opts.Env)...)
	}

	if opts.Stdin != nil {
		c.Stdin = bytes.NewReader(opts.Stdin)
	} else {
		c.Stdin = r.Stdin
	}

	// Captured stdout is returned to the caller; otherwise it goes to the terminal
	var stdout bytes.Buffer
	if opts.Capture {
		c.Stdout = &stdout
	} else {
		c.Stdout = writerOrDiscard(r.Stdout)
	}
	// Stderr always reaches the operator; its tail is kept for ExitError
	tail := &tailWriter{limit: stderrTailSize}
	c.Stderr = io.MultiWriter(writerOrDiscard(r.Stderr), tail)

	logger.Debug("[DEBUG] Running command: %s (dir=%q)\n", cmd, opts.Dir)
	err := c.Run()
	res := Result{Stdout: stdout.Bytes()}
	if err == nil {
		return res, nil
	}

	// A cancelled context killed the process; report the cancellation itself
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", cmd, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if opts.IgnoreExitStatus {
			logger.Warn("[WARN] Ignoring exit status %d of %s\n", res.ExitCode, cmd)
			return res, nil
		}
		return res, &ExitError{Cmd: cmd, Code: res.ExitCode, Stderr: tail.String()}
	}
	return res, &LaunchError{Cmd: cmd, Err: err}
}

// envList flattens env into KEY=VALUE entries in a stable order.
func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// tailWriter keeps the last limit bytes written to it.
type tailWriter struct {
	limit int
	buf   []byte
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailWriter) String() string {
	return string(t.buf)
}
