// Package workflow drives scripted gesture sequences: it debounces the
// classified label stream, matches it against the expected steps and records
// timing and error metrics for each run.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/gesturebench/internal/gesture"
)

// ErrInvalidWorkflow is returned when a workflow definition cannot be run.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// Workflow is an ordered script of expected gestures. It is treated as
// immutable once validated; runners keep their own copy of the steps.
type Workflow struct {
	Name    string          `json:"name" yaml:"name" toml:"name"`
	Family  string          `json:"family" yaml:"family" toml:"family"`
	Profile gesture.Profile `json:"profile" yaml:"profile" toml:"profile"`
	Start   gesture.Label   `json:"start" yaml:"start" toml:"start"`
	Steps   []gesture.Label `json:"steps" yaml:"steps" toml:"steps"`
}

// Validate checks that the workflow has a profile, a real start gesture and
// at least one step, every one of them a real gesture.
func (w *Workflow) Validate() error {
	if w.Profile.Kind == "" {
		return fmt.Errorf("%w: %s: missing profile", ErrInvalidWorkflow, w.Name)
	}
	if !w.Start.Known() {
		return fmt.Errorf("%w: %s: start gesture %s is not a gesture", ErrInvalidWorkflow, w.Name, w.Start)
	}
	if len(w.Steps) == 0 {
		return fmt.Errorf("%w: %s: no steps", ErrInvalidWorkflow, w.Name)
	}
	for i, s := range w.Steps {
		if !s.Known() {
			return fmt.Errorf("%w: %s: step %d: %s is not a gesture", ErrInvalidWorkflow, w.Name, i, s)
		}
	}
	return nil
}

// FamilyName returns the family used to group runs in reports, falling back
// to the profile name.
func (w *Workflow) FamilyName() string {
	if w.Family != "" {
		return w.Family
	}
	return w.Profile.String()
}

// Len returns the number of steps.
func (w *Workflow) Len() int {
	return len(w.Steps)
}

func (w *Workflow) String() string {
	names := make([]string, len(w.Steps))
	for i, s := range w.Steps {
		names[i] = s.String()
	}
	return strings.Join(names, " -> ")
}

// ActionExecutor performs the external effect of a matched gesture. It is
// fire-and-forget: the runner neither observes nor retries failures.
type ActionExecutor interface {
	Execute(label gesture.Label)
}

// ExecutorFunc adapts a function to ActionExecutor.
type ExecutorFunc func(label gesture.Label)

// Execute calls f(label).
func (f ExecutorFunc) Execute(label gesture.Label) { f(label) }

// NopExecutor discards every action.
var NopExecutor ActionExecutor = ExecutorFunc(func(gesture.Label) {})
