// Package app drives benchmark runs: a Session samples one workflow run from
// a pose source and a Batch runs a list of workflows back to back.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/metrics"
	"github.com/ayusman/gesturebench/internal/source"
	"github.com/ayusman/gesturebench/internal/workflow"
)

// Status is the per-tick view of a run, as shown by the overlay, the tray
// and the status websocket.
type Status struct {
	Workflow string        `json:"workflow"`
	Family   string        `json:"family"`
	Time     time.Time     `json:"time"`
	Raw      gesture.Label `json:"raw"`
	Accepted bool          `json:"accepted"`
	// Emitted is the accepted label, empty when the tick fell inside the cooldown.
	Emitted  gesture.Label  `json:"emitted,omitempty"`
	Step     int            `json:"step"`
	Total    int            `json:"total"`
	Expected gesture.Label  `json:"expected"`
	Errors   int            `json:"errors"`
	State    workflow.State `json:"state"`
}

// SessionConfig holds the tunables of a run.
type SessionConfig struct {
	Cooldown    time.Duration
	TickTimeout time.Duration
	Policy      workflow.FalseNegativePolicy
	Executor    workflow.ActionExecutor
	Logger      hclog.Logger
	Metrics     *metrics.Metrics
	// OnTick is called synchronously after every tick.
	OnTick func(Status)
}

// Session runs one workflow against a pose source. The caller owns the
// source and closes it after Run returns.
type Session struct {
	wf     *workflow.Workflow
	src    source.PoseSource
	cfg    SessionConfig
	logger hclog.Logger

	debouncer *workflow.Debouncer
	runner    *workflow.Runner
	last      time.Time
	ticks     int
}

// NewSession validates the workflow and prepares a run.
func NewSession(wf *workflow.Workflow, src source.PoseSource, cfg SessionConfig) (*Session, error) {
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("session: nil pose source")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Session{
		wf:        wf,
		src:       source.WithTimeout(src, cfg.TickTimeout),
		cfg:       cfg,
		logger:    logger.Named("session").With("workflow", wf.Name),
		debouncer: workflow.NewDebouncer(cfg.Cooldown),
		runner:    workflow.NewRunner(wf, cfg.Executor, cfg.Policy),
	}, nil
}

// Run samples ticks until the workflow completes, the source ends or ctx is
// cancelled. Cancellation and end of input stop the run at the last tick and
// are not errors. A tick timeout or a source failure aborts the run.
func (s *Session) Run(ctx context.Context) (workflow.RunResult, error) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RunStarted()
	}

	s.logger.Info("waiting for start gesture", "start", s.wf.Start, "steps", s.wf.Len())

	for s.runner.State() != workflow.Complete {
		obs, err := s.src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				s.runner.Stop(s.last)
				s.logger.Info("run stopped", "reason", stopReason(ctx), "step", s.runner.Step())
				break
			}
			if errors.Is(err, source.ErrTickTimeout) && s.cfg.Metrics != nil {
				s.cfg.Metrics.RecordTickTimeout()
			}
			s.logger.Error("run aborted", "error", err, "ticks", s.ticks)
			s.finish(workflow.OutcomeFailed, 0)
			return workflow.RunResult{}, fmt.Errorf("run %s: %w", s.wf.Name, err)
		}
		s.tick(obs)
	}

	summary := s.runner.Summary()
	s.finish(summary.Outcome, summary.Elapsed)

	return workflow.RunResult{
		Workflow: s.wf.Name,
		Family:   s.wf.FamilyName(),
		Summary:  summary,
		Records:  s.runner.Records(),
	}, nil
}

// tick runs one observation through classify, debounce and the runner.
func (s *Session) tick(obs source.Observation) {
	s.ticks++
	at := obs.Time
	if at.IsZero() {
		at = time.Now()
	}
	s.last = at

	raw := gesture.ClassifyHands(obs.Hands, s.wf.Profile)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordTick(s.wf.Profile, raw)
	}

	label, accepted := s.debouncer.Accept(raw, at)
	if accepted {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordAccepted(label)
		}

		t := s.runner.Handle(label, at)
		s.observe(t)
	}

	if s.cfg.OnTick != nil {
		s.cfg.OnTick(Status{
			Workflow: s.wf.Name,
			Family:   s.wf.FamilyName(),
			Time:     at,
			Raw:      raw,
			Accepted: accepted,
			Emitted:  label,
			Step:     s.runner.Step(),
			Total:    s.runner.Len(),
			Expected: s.runner.Expected(),
			Errors:   s.runner.ErrorCount(),
			State:    s.runner.State(),
		})
	}
}

func (s *Session) observe(t workflow.Transition) {
	if t.Started {
		s.logger.Info("workflow started")
	}
	if t.Matched {
		s.logger.Info("step matched", "step", t.Step+1, "of", s.runner.Len(), "label", t.Label)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.SetStep(s.runner.Step())
		}
	}
	if t.Error != nil {
		s.logger.Debug("step error", "kind", t.Error.Kind, "expected", t.Error.Expected, "observed", t.Error.Observed)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordError(t.Error.Kind)
		}
	}
	if t.Completed {
		s.logger.Info("workflow completed", "elapsed", s.runner.Summary().Elapsed)
	}
}

func (s *Session) finish(outcome workflow.Outcome, elapsed time.Duration) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RunFinished(s.wf.FamilyName(), outcome, elapsed)
	}
}

// Ticks returns the number of observations processed so far.
func (s *Session) Ticks() int {
	return s.ticks
}

func stopReason(ctx context.Context) string {
	if ctx.Err() != nil {
		return "cancelled"
	}
	return "end of input"
}
