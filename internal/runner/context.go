package runner

import (
	"context"
	"strings"
)

// ExecContext is the explicit execution environment handed to every step:
// which runner to use, the working directory, and environment overrides.
// It is a value; In and With return modified copies and never touch the
// process-wide working directory or environment.
type ExecContext struct {
	Runner Runner
	Dir    string
	Env    map[string]string
}

// NewExecContext binds r to the given working directory.
func NewExecContext(r Runner, dir string) ExecContext {
	return ExecContext{Runner: r, Dir: dir}
}

// In returns a copy whose commands run in dir.
func (ec ExecContext) In(dir string) ExecContext {
	ec.Dir = dir
	return ec
}

// With returns a copy with key=value added to the environment overrides.
func (ec ExecContext) With(key, value string) ExecContext {
	env := make(map[string]string, len(ec.Env)+1)
	for k, v := range ec.Env {
		env[k] = v
	}
	env[key] = value
	ec.Env = env
	return ec
}

// RunWith runs cmd, layering opts over the context's directory and environment.
func (ec ExecContext) RunWith(ctx context.Context, cmd Cmd, opts Options) (Result, error) {
	if opts.Dir == "" {
		opts.Dir = ec.Dir
	}
	if len(ec.Env) > 0 {
		env := make(map[string]string, len(ec.Env)+len(opts.Env))
		for k, v := range ec.Env {
			env[k] = v
		}
		for k, v := range opts.Env {
			env[k] = v
		}
		opts.Env = env
	}
	return ec.Runner.Run(ctx, cmd, opts)
}

// Run runs a command, streaming its output, and fails on a non-zero exit.
func (ec ExecContext) Run(ctx context.Context, name string, args ...string) error {
	_, err := ec.RunWith(ctx, Command(name, args...), Options{})
	return err
}

// Read runs a command and returns its stdout without the trailing newline.
func (ec ExecContext) Read(ctx context.Context, name string, args ...string) (string, error) {
	res, err := ec.RunWith(ctx, Command(name, args...), Options{Capture: true})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(res.String(), "\r\n"), nil
}

// Chain runs cmds in order, feeding each one's stdout to the next one's stdin,
// the way a shell pipeline would. The last command's Result is returned.
func Chain(ctx context.Context, ec ExecContext, cmds ...Cmd) (Result, error) {
	var (
		input []byte
		res   Result
	)
	for _, cmd := range cmds {
		var err error
		res, err = ec.RunWith(ctx, cmd, Options{Capture: true, Stdin: input})
		if err != nil {
			return res, err
		}
		input = res.Stdout
		if input == nil {
			input = []byte{}
		}
	}
	return res, nil
}
