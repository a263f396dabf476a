package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/gesturebench/internal/gesture"
)

// ErrorKind classifies a mismatch between the expected and observed gesture.
type ErrorKind string

const (
	// Misclassification is a confident but wrong gesture.
	Misclassification ErrorKind = "MISCLASSIFICATION"
	// FalseNegative is an Unknown classification while a gesture was expected.
	FalseNegative ErrorKind = "FALSE_NEGATIVE"
)

// FalseNegativePolicy decides whether false negatives are kept in the record
// list. They never count toward the error total either way.
type FalseNegativePolicy string

const (
	// IgnoreFalseNegatives only tallies false negatives.
	IgnoreFalseNegatives FalseNegativePolicy = "ignore"
	// RecordFalseNegatives also appends them to the record list for auditing.
	RecordFalseNegatives FalseNegativePolicy = "record"
)

// ParseFalseNegativePolicy resolves a policy name; empty means ignore.
func ParseFalseNegativePolicy(s string) (FalseNegativePolicy, error) {
	switch FalseNegativePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", IgnoreFalseNegatives:
		return IgnoreFalseNegatives, nil
	case RecordFalseNegatives:
		return RecordFalseNegatives, nil
	default:
		return "", fmt.Errorf("unknown false negative policy %q", s)
	}
}

// ErrorRecord is one mismatch observed during an active run step.
type ErrorRecord struct {
	Time     time.Time     `json:"time"`
	Step     int           `json:"step"` // zero-based index into the workflow
	Expected gesture.Label `json:"expected"`
	Observed gesture.Label `json:"observed"`
	Kind     ErrorKind     `json:"kind"`
}

// Recorder accumulates the error records of one run. Records are append-only.
type Recorder struct {
	policy         FalseNegativePolicy
	records        []ErrorRecord
	errorCount     int
	falseNegatives int
}

// NewRecorder creates a Recorder applying the given false negative policy.
func NewRecorder(policy FalseNegativePolicy) *Recorder {
	if policy == "" {
		policy = IgnoreFalseNegatives
	}
	return &Recorder{policy: policy}
}

// Add records a mismatch and reports whether it was appended to the list.
func (r *Recorder) Add(rec ErrorRecord) bool {
	switch rec.Kind {
	case Misclassification:
		r.errorCount++
	case FalseNegative:
		r.falseNegatives++
		if r.policy != RecordFalseNegatives {
			return false
		}
	}
	r.records = append(r.records, rec)
	return true
}

// ErrorCount returns the number of misclassifications.
func (r *Recorder) ErrorCount() int {
	return r.errorCount
}

// FalseNegatives returns the number of false negatives seen, recorded or not.
func (r *Recorder) FalseNegatives() int {
	return r.falseNegatives
}

// Records returns a copy of the record list.
func (r *Recorder) Records() []ErrorRecord {
	out := make([]ErrorRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Outcome is how a run ended.
type Outcome string

const (
	// OutcomeCompleted means every step was matched.
	OutcomeCompleted Outcome = "completed"
	// OutcomeIncomplete means the run started but was stopped before the last step.
	OutcomeIncomplete Outcome = "incomplete"
	// OutcomeNotStarted means the start gesture never arrived.
	OutcomeNotStarted Outcome = "not_started"
	// OutcomeFailed means the run aborted on an error, e.g. a lost pose source.
	OutcomeFailed Outcome = "failed"
)

// Summary is the read-only result of a run.
type Summary struct {
	Workflow       string        `json:"workflow"`
	Outcome        Outcome       `json:"outcome"`
	StartedAt      time.Time     `json:"started_at,omitzero"`
	EndedAt        time.Time     `json:"ended_at,omitzero"`
	Elapsed        time.Duration `json:"elapsed"`
	ErrorCount     int           `json:"error_count"`
	FalseNegatives int           `json:"false_negatives"`
	StepsDone      int           `json:"steps_done"`
	Steps          int           `json:"steps"`
}

// Started reports whether the start gesture was ever observed.
func (s Summary) Started() bool {
	return !s.StartedAt.IsZero()
}

// ElapsedSeconds returns the elapsed time in seconds, zero for runs that never started.
func (s Summary) ElapsedSeconds() float64 {
	return s.Elapsed.Seconds()
}
