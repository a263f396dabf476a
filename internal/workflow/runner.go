package workflow

import (
	"fmt"
	"time"

	"github.com/ayusman/gesturebench/internal/gesture"
)

// State is the lifecycle stage of a run.
type State int

const (
	// NotStarted waits for the start gesture; everything else is ignored.
	NotStarted State = iota
	// Running matches accepted labels against the current step.
	Running
	// Complete means every step has been matched.
	Complete
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "invalid"
	}
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{NotStarted, Running, Complete} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown run state %q", text)
}

// Transition describes what one accepted label did to the run.
type Transition struct {
	Label     gesture.Label
	Step      int // step index the label was compared against
	Started   bool
	Matched   bool
	Completed bool
	Error     *ErrorRecord // set for misclassifications and false negatives
}

// Ignored reports whether the label had no effect at all.
func (t Transition) Ignored() bool {
	return !t.Started && !t.Matched && t.Error == nil
}

// Runner is the state machine for one run of a workflow. It must only be fed
// debounced labels, and is not safe for concurrent use.
type Runner struct {
	name     string
	start    gesture.Label
	steps    []gesture.Label
	executor ActionExecutor
	recorder *Recorder

	state     State
	step      int
	startedAt time.Time
	endedAt   time.Time
}

// NewRunner creates a runner for a validated workflow. A nil executor discards actions.
func NewRunner(wf *Workflow, executor ActionExecutor, policy FalseNegativePolicy) *Runner {
	if executor == nil {
		executor = NopExecutor
	}

	steps := make([]gesture.Label, len(wf.Steps))
	copy(steps, wf.Steps)

	return &Runner{
		name:     wf.Name,
		start:    wf.Start,
		steps:    steps,
		executor: executor,
		recorder: NewRecorder(policy),
	}
}

// Handle feeds one accepted label observed at the given time.
func (r *Runner) Handle(label gesture.Label, at time.Time) Transition {
	t := Transition{Label: label, Step: r.step}

	switch r.state {
	case NotStarted:
		if label != r.start {
			return t
		}
		r.state = Running
		r.startedAt = at
		t.Started = true

		// The start gesture may also be the first step of the script. When it
		// is not, the tick only starts the run and never counts as an error.
		switch {
		case len(r.steps) == 0:
			r.state = Complete
			r.endedAt = at
			t.Completed = true
		case label == r.steps[0]:
			r.advance(label, at, &t)
		}
		return t

	case Running:
		expected := r.steps[r.step]
		if label == expected {
			r.advance(label, at, &t)
			return t
		}

		kind := Misclassification
		if !label.Known() {
			kind = FalseNegative
		}
		rec := ErrorRecord{
			Time:     at,
			Step:     r.step,
			Expected: expected,
			Observed: label,
			Kind:     kind,
		}
		r.recorder.Add(rec)
		t.Error = &rec
		return t

	default:
		return t
	}
}

func (r *Runner) advance(label gesture.Label, at time.Time, t *Transition) {
	r.executor.Execute(label)
	r.step++
	t.Matched = true

	if r.step == len(r.steps) {
		r.state = Complete
		r.endedAt = at
		t.Completed = true
	}
}

// Stop marks the end of an unfinished run, e.g. on an external quit. It has
// no effect on a completed run.
func (r *Runner) Stop(at time.Time) {
	if r.state == Running && r.endedAt.IsZero() {
		r.endedAt = at
	}
}

// State returns the current lifecycle stage.
func (r *Runner) State() State { return r.state }

// Step returns the zero-based index of the next expected step.
func (r *Runner) Step() int { return r.step }

// Len returns the number of steps in the workflow.
func (r *Runner) Len() int { return len(r.steps) }

// Expected returns the next expected gesture, or Unknown once complete.
func (r *Runner) Expected() gesture.Label {
	if r.step >= len(r.steps) {
		return gesture.Unknown
	}
	return r.steps[r.step]
}

// ErrorCount returns the number of misclassifications so far.
func (r *Runner) ErrorCount() int { return r.recorder.ErrorCount() }

// Records returns a copy of the error records.
func (r *Runner) Records() []ErrorRecord { return r.recorder.Records() }

// Summary returns the run metrics. Runs that never started report zero
// elapsed time with OutcomeNotStarted, never a negative or oversized value.
func (r *Runner) Summary() Summary {
	s := Summary{
		Workflow:       r.name,
		StartedAt:      r.startedAt,
		EndedAt:        r.endedAt,
		ErrorCount:     r.recorder.ErrorCount(),
		FalseNegatives: r.recorder.FalseNegatives(),
		StepsDone:      r.step,
		Steps:          len(r.steps),
	}

	switch r.state {
	case NotStarted:
		s.Outcome = OutcomeNotStarted
	case Running:
		s.Outcome = OutcomeIncomplete
	case Complete:
		s.Outcome = OutcomeCompleted
	}

	if r.state != NotStarted && !r.endedAt.IsZero() && r.endedAt.After(r.startedAt) {
		s.Elapsed = r.endedAt.Sub(r.startedAt)
	}

	return s
}
