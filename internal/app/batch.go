package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/gesturebench/internal/report"
	"github.com/ayusman/gesturebench/internal/source"
	"github.com/ayusman/gesturebench/internal/workflow"
)

// SourceFactory opens the pose source for one run.
type SourceFactory func(ctx context.Context, wf *workflow.Workflow) (source.PoseSource, error)

// BatchConfig holds the options of a batch.
type BatchConfig struct {
	Session SessionConfig
	// Orderer picks the run order. Nil runs workflows as configured.
	Orderer Orderer
	Sink    report.Sink
	Logger  hclog.Logger
	// OnRunStart is called before each run with its position in the batch.
	OnRunStart func(index int, wf *workflow.Workflow)

	newID func() string
	now   func() time.Time
}

// Batch runs a list of workflows strictly one after the other under a single
// batch identifier. A failed run is recorded and the batch moves on.
type Batch struct {
	workflows []*workflow.Workflow
	open      SourceFactory
	cfg       BatchConfig
	logger    hclog.Logger
}

// NewBatch validates every workflow up front so a bad definition fails
// before any run starts.
func NewBatch(wfs []*workflow.Workflow, open SourceFactory, cfg BatchConfig) (*Batch, error) {
	if len(wfs) == 0 {
		return nil, fmt.Errorf("%w: batch has no workflows", workflow.ErrInvalidWorkflow)
	}
	for _, wf := range wfs {
		if err := wf.Validate(); err != nil {
			return nil, err
		}
	}
	if open == nil {
		return nil, errors.New("batch: nil source factory")
	}

	if cfg.Orderer == nil {
		cfg.Orderer = InOrder
	}
	if cfg.Sink == nil {
		cfg.Sink = report.Multi{}
	}
	if cfg.newID == nil {
		cfg.newID = uuid.NewString
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cfg.Session.Logger == nil {
		cfg.Session.Logger = logger
	}

	return &Batch{
		workflows: wfs,
		open:      open,
		cfg:       cfg,
		logger:    logger.Named("batch"),
	}, nil
}

// Run executes the batch. Cancelling ctx stops the current run at its last
// tick and skips the remaining workflows. The returned error only reports
// sink failures; run failures are part of the result.
func (b *Batch) Run(ctx context.Context) (*workflow.BatchResult, error) {
	result := &workflow.BatchResult{
		ID:        b.cfg.newID(),
		StartedAt: b.cfg.now(),
	}
	logger := b.logger.With("batch", result.ID)

	if err := b.cfg.Sink.Begin(result); err != nil {
		return result, fmt.Errorf("begin batch: %w", err)
	}

	flowIndex := familyPositions(b.workflows)
	order := b.cfg.Orderer.Order(b.workflows)
	logger.Info("batch started", "runs", len(order))

	var sinkErrs []error
	for i, wi := range order {
		if ctx.Err() != nil {
			logger.Info("batch cancelled", "skipped", len(order)-i)
			break
		}

		wf := b.workflows[wi]
		if b.cfg.OnRunStart != nil {
			b.cfg.OnRunStart(i, wf)
		}

		run := b.runOne(ctx, wf)
		run.Index = i
		run.FlowIndex = flowIndex[wi]
		if run.Err != nil {
			logger.Warn("run failed", "workflow", wf.Name, "error", run.Err)
		}

		result.Runs = append(result.Runs, run)
		if err := b.cfg.Sink.Run(result, run); err != nil {
			logger.Error("failed to record run", "workflow", wf.Name, "error", err)
			sinkErrs = append(sinkErrs, err)
		}
	}

	result.EndedAt = b.cfg.now()
	elapsed, errs := result.Totals()
	logger.Info("batch finished", "completed", result.Completed(), "runs", len(result.Runs),
		"elapsed", elapsed, "errors", errs)

	if err := b.cfg.Sink.End(result); err != nil {
		sinkErrs = append(sinkErrs, fmt.Errorf("end batch: %w", err))
	}
	return result, errors.Join(sinkErrs...)
}

// runOne opens a source and runs one session, turning every failure into a
// failed run result.
func (b *Batch) runOne(ctx context.Context, wf *workflow.Workflow) (run workflow.RunResult) {
	defer func() {
		if r := recover(); r != nil {
			run = workflow.FailedRun(0, 0, wf, fmt.Errorf("run panicked: %v", r))
		}
	}()

	src, err := b.open(ctx, wf)
	if err != nil {
		return workflow.FailedRun(0, 0, wf, fmt.Errorf("open source: %w", err))
	}
	defer func() {
		if err := src.Close(); err != nil {
			b.logger.Warn("failed to close source", "workflow", wf.Name, "error", err)
		}
	}()

	session, err := NewSession(wf, src, b.cfg.Session)
	if err != nil {
		return workflow.FailedRun(0, 0, wf, err)
	}

	run, err = session.Run(ctx)
	if err != nil {
		return workflow.FailedRun(0, 0, wf, err)
	}
	return run
}

// familyPositions returns the one-based position of each workflow within
// its family, in configured order.
func familyPositions(wfs []*workflow.Workflow) []int {
	seen := make(map[string]int)
	pos := make([]int, len(wfs))
	for i, wf := range wfs {
		f := wf.FamilyName()
		seen[f]++
		pos[i] = seen[f]
	}
	return pos
}
