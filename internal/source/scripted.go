package source

import (
	"context"
	"io"
	"sync"
)

// Scripted is an in-memory source that yields a fixed sequence of
// observations and then io.EOF. It is used for dry runs and tests.
type Scripted struct {
	mu     sync.Mutex
	ticks  []Observation
	index  int
	closed bool
}

// NewScripted creates a source over the given observations.
func NewScripted(ticks []Observation) *Scripted {
	return &Scripted{ticks: ticks}
}

// Next returns the next observation, io.EOF when exhausted.
func (s *Scripted) Next(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Observation{}, ErrSourceClosed
	}
	if s.index >= len(s.ticks) {
		return Observation{}, io.EOF
	}
	obs := s.ticks[s.index]
	s.index++
	return obs, nil
}

// Close marks the source closed.
func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Remaining returns how many observations have not been read yet.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks) - s.index
}
