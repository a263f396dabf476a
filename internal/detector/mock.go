package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturebench/internal/hand"
)

// MockDetector is a test implementation of the Detector interface.
// It returns queued results in order, then repeats the configured hands.
type MockDetector struct {
	mu     sync.Mutex
	hands  []hand.Pose
	queue  [][]hand.Pose
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect once the queue is empty.
func (m *MockDetector) SetHands(hands []hand.Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Enqueue appends one Detect result per pose. A nil pose queues a frame with no hand.
func (m *MockDetector) Enqueue(poses ...*hand.Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range poses {
		if p == nil {
			m.queue = append(m.queue, nil)
			continue
		}
		m.queue = append(m.queue, []hand.Pose{*p})
	}
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued result, the configured hands, or the error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]hand.Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
