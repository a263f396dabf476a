// Package source provides the per-tick stream of hand observations consumed
// by the workflow session.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/gesturebench/internal/hand"
)

var (
	// ErrTickTimeout is returned when a source produces no observation within the tick timeout.
	ErrTickTimeout = errors.New("pose source tick timeout")
	// ErrSourceClosed is returned by Next after Close.
	ErrSourceClosed = errors.New("pose source closed")
)

// Observation is one tick of pose estimator output: the wall-clock time of
// the tick and zero or more detected hands. The order of Hands is whatever
// the estimator reports and is not guaranteed to be stable across ticks.
type Observation struct {
	Time  time.Time   `json:"t"`
	Hands []hand.Pose `json:"hands"`
}

// First returns the first detected hand, or nil when no hand was detected.
func (o Observation) First() *hand.Pose {
	if len(o.Hands) == 0 {
		return nil
	}
	return &o.Hands[0]
}

// PoseSource yields one observation per tick. Next blocks until the next
// tick is available or ctx is done. Finite sources return io.EOF when exhausted.
type PoseSource interface {
	Next(ctx context.Context) (Observation, error)
	Close() error
}

// DefaultTickTimeout bounds how long a single tick may take.
const DefaultTickTimeout = 5 * time.Second

// timeoutSource bounds every Next call of the wrapped source.
type timeoutSource struct {
	inner   PoseSource
	timeout time.Duration
}

// WithTimeout wraps src so that a tick taking longer than timeout fails with
// ErrTickTimeout instead of stalling the run. A non-positive timeout uses
// DefaultTickTimeout.
func WithTimeout(src PoseSource, timeout time.Duration) PoseSource {
	if timeout <= 0 {
		timeout = DefaultTickTimeout
	}
	return &timeoutSource{inner: src, timeout: timeout}
}

func (s *timeoutSource) Next(ctx context.Context) (Observation, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obs, err := s.inner.Next(tctx)
	if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return Observation{}, fmt.Errorf("%w after %s", ErrTickTimeout, s.timeout)
	}
	return obs, err
}

func (s *timeoutSource) Close() error {
	return s.inner.Close()
}

// Blocking runs a blocking read on its own goroutine and returns early when
// ctx is done. The read keeps running in the background in that case and its
// result is discarded.
func Blocking(ctx context.Context, read func() (Observation, error)) (Observation, error) {
	type result struct {
		obs Observation
		err error
	}

	done := make(chan result, 1)
	go func() {
		obs, err := read()
		done <- result{obs, err}
	}()

	select {
	case <-ctx.Done():
		return Observation{}, ctx.Err()
	case r := <-done:
		return r.obs, r.err
	}
}
