// Package pipeline runs an ordered list of named installation steps.
//
// Steps run strictly in declared order and at most once. The first failing
// step aborts the pipeline; already applied changes are left in place.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"ckan-devstaller/internal/runner"
)

// State is the lifecycle of a Pipeline.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrSkipped is returned by an Action that found its work already done.
var ErrSkipped = errors.New("step skipped")

// Action performs a step's work in the given execution context.
type Action func(ctx context.Context, ec runner.ExecContext) error

// Step is one numbered unit of the installation.
type Step struct {
	// Ordinal is the console label, e.g. "3.".
	Ordinal string
	// Description is printed before the step starts.
	Description string
	// Success is printed after the step completes. Defaults to Description.
	Success string
	// Skip keeps the step in the sequence but performs nothing.
	Skip   bool
	Action Action
}

// AbortError reports the step that stopped the pipeline.
type AbortError struct {
	Index       int
	Ordinal     string
	Description string
	Err         error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("step %s %s failed: %v", e.Ordinal, e.Description, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Pipeline owns an ordered sequence of steps and its run state.
type Pipeline struct {
	steps    []Step
	observer Observer

	state   State
	current int
	err     *AbortError
}

// New builds a pipeline. A nil observer discards notifications.
func New(observer Observer, steps ...Step) *Pipeline {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Pipeline{steps: steps, observer: observer, current: -1}
}

// Steps returns the declared steps.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return p.state }

// Current returns the index of the running or last attempted step, or -1.
func (p *Pipeline) Current() int { return p.current }

// Err returns the abort reason, or nil.
func (p *Pipeline) Err() *AbortError { return p.err }

// Run executes every step in order. It may be called once.
func (p *Pipeline) Run(ctx context.Context, ec runner.ExecContext) error {
	if p.state != NotStarted {
		return fmt.Errorf("pipeline already %s", p.state)
	}
	p.state = Running

	for i, step := range p.steps {
		p.current = i
		if err := ctx.Err(); err != nil {
			return p.abort(i, step, err)
		}
		if step.Skip {
			p.observer.StepSkipped(i, step)
			continue
		}

		p.observer.StepStarted(i, step)
		if step.Action != nil {
			err := step.Action(ctx, ec)
			if errors.Is(err, ErrSkipped) {
				p.observer.StepSkipped(i, step)
				continue
			}
			if err != nil {
				return p.abort(i, step, err)
			}
		}
		p.observer.StepCompleted(i, step)
	}

	p.state = Completed
	return nil
}

func (p *Pipeline) abort(i int, step Step, err error) error {
	p.state = Aborted
	p.err = &AbortError{Index: i, Ordinal: step.Ordinal, Description: step.Description, Err: err}
	p.observer.StepFailed(i, step, err)
	return p.err
}
