// Package report persists batch results: the per-mismatch error log, the
// per-batch summary sheet and the console summary.
package report

import (
	"errors"

	"github.com/ayusman/gesturebench/internal/workflow"
)

// Sink receives the results of a batch as it progresses. Begin is called
// once before the first run, Run once per finished run, End once after the
// last run.
type Sink interface {
	Begin(batch *workflow.BatchResult) error
	Run(batch *workflow.BatchResult, run workflow.RunResult) error
	End(batch *workflow.BatchResult) error
}

// Multi fans every call out to several sinks and joins their errors.
type Multi []Sink

func (m Multi) Begin(batch *workflow.BatchResult) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Begin(batch))
	}
	return errors.Join(errs...)
}

func (m Multi) Run(batch *workflow.BatchResult, run workflow.RunResult) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Run(batch, run))
	}
	return errors.Join(errs...)
}

func (m Multi) End(batch *workflow.BatchResult) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.End(batch))
	}
	return errors.Join(errs...)
}
