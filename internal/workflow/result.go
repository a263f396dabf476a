package workflow

import "time"

// RunResult is the outcome of one workflow within a batch.
type RunResult struct {
	// Index is the zero-based position of the run in the batch.
	Index int `json:"index"`
	// FlowIndex is the one-based position of the workflow within its family.
	FlowIndex int           `json:"flow_index"`
	Workflow  string        `json:"workflow"`
	Family    string        `json:"family"`
	Summary   Summary       `json:"summary"`
	Records   []ErrorRecord `json:"records,omitempty"`
	// Err is set when the run aborted; the summary then reports OutcomeFailed.
	Err error `json:"-"`
}

// Failed reports whether the run aborted on an error.
func (r RunResult) Failed() bool {
	return r.Summary.Outcome == OutcomeFailed
}

// FailedRun builds the zero-duration result recorded for an aborted run.
func FailedRun(index, flowIndex int, wf *Workflow, err error) RunResult {
	return RunResult{
		Index:     index,
		FlowIndex: flowIndex,
		Workflow:  wf.Name,
		Family:    wf.FamilyName(),
		Summary: Summary{
			Workflow: wf.Name,
			Outcome:  OutcomeFailed,
			Steps:    wf.Len(),
		},
		Err: err,
	}
}

// BatchResult collects the runs of one batch under a single identifier.
type BatchResult struct {
	ID        string      `json:"id"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at,omitzero"`
	Runs      []RunResult `json:"runs"`
}

// Totals sums elapsed time and error counts over every run.
func (b BatchResult) Totals() (elapsed time.Duration, errs int) {
	for _, r := range b.Runs {
		elapsed += r.Summary.Elapsed
		errs += r.Summary.ErrorCount
	}
	return elapsed, errs
}

// Completed returns how many runs reached the last step.
func (b BatchResult) Completed() int {
	n := 0
	for _, r := range b.Runs {
		if r.Summary.Outcome == OutcomeCompleted {
			n++
		}
	}
	return n
}
