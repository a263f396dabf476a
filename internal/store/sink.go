package store

import (
	"fmt"

	"github.com/ayusman/gesturebench/internal/report"
	"github.com/ayusman/gesturebench/internal/workflow"
)

// Sink stores batches as they run.
type Sink struct {
	store *Store
}

var _ report.Sink = (*Sink)(nil)

// Sink returns a report sink backed by this store.
func (s *Store) Sink() *Sink {
	return &Sink{store: s}
}

func (k *Sink) Begin(batch *workflow.BatchResult) error {
	if err := k.store.Batches().Create(&Batch{ID: batch.ID, StartedAt: batch.StartedAt}); err != nil {
		return fmt.Errorf("store batch: %w", err)
	}
	return nil
}

func (k *Sink) Run(batch *workflow.BatchResult, run workflow.RunResult) error {
	if _, err := k.store.Runs().Create(batch.ID, run); err != nil {
		return fmt.Errorf("store run %d: %w", run.Index, err)
	}
	return nil
}

func (k *Sink) End(batch *workflow.BatchResult) error {
	if batch.EndedAt.IsZero() {
		return nil
	}
	if err := k.store.Batches().Finish(batch.ID, batch.EndedAt); err != nil {
		return fmt.Errorf("finish batch: %w", err)
	}
	return nil
}
