package runner

import (
	"context"
	"strings"
	"sync"
)

// Call is one invocation observed by a Recorder.
type Call struct {
	Cmd  Cmd
	Opts Options
}

// Recorder is an in-memory Runner for tests. Every call is recorded; the
// optional Handler decides the outcome, otherwise the call succeeds with
// empty output.
type Recorder struct {
	Handler func(cmd Cmd, opts Options) (Result, error)

	mu    sync.Mutex
	calls []Call
}

// Run records the call and delegates to Handler.
func (r *Recorder) Run(_ context.Context, cmd Cmd, opts Options) (Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Cmd: cmd, Opts: opts})
	r.mu.Unlock()
	if r.Handler == nil {
		return Result{}, nil
	}
	return r.Handler(cmd, opts)
}

// Calls returns a copy of all recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Commands returns the recorded command lines.
func (r *Recorder) Commands() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Cmd.String()
	}
	return out
}

// Count returns how many recorded command lines contain substr.
func (r *Recorder) Count(substr string) int {
	n := 0
	for _, line := range r.Commands() {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}
