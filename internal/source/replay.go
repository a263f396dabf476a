package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// ReplaySource plays back observations recorded as JSON lines, one
// Observation per line. Blank lines are skipped.
type ReplaySource struct {
	mu       sync.Mutex
	scanner  *bufio.Scanner
	closer   io.Closer
	line     int
	realtime bool
	prev     time.Time
	closed   bool
}

// NewReplaySource reads observations from r. When realtime is true, Next
// sleeps for the recorded gap between consecutive ticks.
func NewReplaySource(r io.Reader, realtime bool) *ReplaySource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	s := &ReplaySource{scanner: scanner, realtime: realtime}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenReplay opens a recorded JSONL file.
func OpenReplay(path string, realtime bool) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	return NewReplaySource(f, realtime), nil
}

// Next returns the next recorded observation, or io.EOF at the end of the recording.
func (s *ReplaySource) Next(ctx context.Context) (Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Observation{}, ErrSourceClosed
	}

	for {
		if err := ctx.Err(); err != nil {
			return Observation{}, err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Observation{}, fmt.Errorf("read replay line %d: %w", s.line+1, err)
			}
			return Observation{}, io.EOF
		}
		s.line++

		data := s.scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		var obs Observation
		if err := json.Unmarshal(data, &obs); err != nil {
			return Observation{}, fmt.Errorf("parse replay line %d: %w", s.line, err)
		}

		if s.realtime && !s.prev.IsZero() && obs.Time.After(s.prev) {
			timer := time.NewTimer(obs.Time.Sub(s.prev))
			select {
			case <-ctx.Done():
				timer.Stop()
				return Observation{}, ctx.Err()
			case <-timer.C:
			}
		}
		s.prev = obs.Time

		return obs, nil
	}
}

// Close releases the underlying reader if it is closable.
func (s *ReplaySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Recording tees every observation of a source into a JSONL writer so the
// run can be replayed later.
type Recording struct {
	inner PoseSource
	mu    sync.Mutex
	w     *bufio.Writer
	out   io.WriteCloser
}

// Record wraps src, appending each successfully read observation to out.
func Record(src PoseSource, out io.WriteCloser) *Recording {
	return &Recording{inner: src, w: bufio.NewWriter(out), out: out}
}

// Next reads from the wrapped source and writes the observation out.
func (r *Recording) Next(ctx context.Context) (Observation, error) {
	obs, err := r.inner.Next(ctx)
	if err != nil {
		return obs, err
	}

	line, err := json.Marshal(obs)
	if err != nil {
		return obs, fmt.Errorf("encode observation: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return obs, fmt.Errorf("write recording: %w", err)
	}
	return obs, nil
}

// Close flushes the recording and closes both the writer and the wrapped source.
func (r *Recording) Close() error {
	r.mu.Lock()
	flushErr := r.w.Flush()
	closeErr := r.out.Close()
	r.mu.Unlock()

	srcErr := r.inner.Close()
	for _, err := range []error{flushErr, closeErr, srcErr} {
		if err != nil {
			return err
		}
	}
	return nil
}
