package pipeline

import (
	"fmt"

	"ckan-devstaller/internal/logger"
)

// Observer receives step lifecycle notifications.
type Observer interface {
	StepStarted(index int, step Step)
	StepCompleted(index int, step Step)
	StepSkipped(index int, step Step)
	StepFailed(index int, step Step, err error)
}

// Observers fans notifications out to each of obs in order.
type Observers []Observer

func (o Observers) StepStarted(i int, step Step) {
	for _, ob := range o {
		ob.StepStarted(i, step)
	}
}

func (o Observers) StepCompleted(i int, step Step) {
	for _, ob := range o {
		ob.StepCompleted(i, step)
	}
}

func (o Observers) StepSkipped(i int, step Step) {
	for _, ob := range o {
		ob.StepSkipped(i, step)
	}
}

func (o Observers) StepFailed(i int, step Step, err error) {
	for _, ob := range o {
		ob.StepFailed(i, step, err)
	}
}

type nopObserver struct{}

func (nopObserver) StepStarted(int, Step)       {}
func (nopObserver) StepCompleted(int, Step)     {}
func (nopObserver) StepSkipped(int, Step)       {}
func (nopObserver) StepFailed(int, Step, error) {}

// ConsoleObserver prints the numbered status lines the operator follows.
type ConsoleObserver struct{}

func (ConsoleObserver) StepStarted(_ int, step Step) {
	logger.Println()
	logger.Println(fmt.Sprintf("%s %s...", logger.Step(step.Ordinal), step.Description))
}

func (ConsoleObserver) StepCompleted(_ int, step Step) {
	msg := step.Success
	if msg == "" {
		msg = step.Description
	}
	logger.Println(logger.Success(fmt.Sprintf("%s %s.", step.Ordinal, msg)))
}

func (ConsoleObserver) StepSkipped(_ int, step Step) {
	logger.Debug("[DEBUG] Skipping step %s %s\n", step.Ordinal, step.Description)
}

// StepFailed only logs at debug level; the caller reports the AbortError.
func (ConsoleObserver) StepFailed(_ int, step Step, err error) {
	logger.Debug("[DEBUG] %s %s failed: %v\n", step.Ordinal, step.Description, err)
}
