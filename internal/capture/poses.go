package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/gesturebench/internal/detector"
	"github.com/ayusman/gesturebench/internal/hand"
	"github.com/ayusman/gesturebench/internal/source"
)

// Options tune a PoseSource. The zero value is usable.
type Options struct {
	// Gate, when set, skips detection for frames that did not change and
	// reuses the previous hands instead.
	Gate *MotionGate
	// Logger receives per-frame debug output.
	Logger hclog.Logger
	// Clock stamps each observation. Defaults to time.Now.
	Clock func() time.Time
}

// PoseSource couples a camera with a hand detector: every tick reads one
// frame, runs detection and stamps the result with the wall-clock time.
type PoseSource struct {
	camera   Camera
	detector detector.Detector
	gate     *MotionGate
	logger   hclog.Logger
	clock    func() time.Time

	// mu serializes frame reads; a read abandoned by a timed-out tick may
	// still be running when the next tick starts.
	mu      sync.Mutex
	last    []hand.Pose
	skipped int
}

var _ source.PoseSource = (*PoseSource)(nil)

// OpenPoseSource opens cam and returns a source reading from it.
func OpenPoseSource(cam Camera, det detector.Detector, opts Options) (*PoseSource, error) {
	if err := cam.Open(); err != nil {
		return nil, fmt.Errorf("open pose source: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &PoseSource{
		camera:   cam,
		detector: det,
		gate:     opts.Gate,
		logger:   opts.Logger.Named("capture"),
		clock:    opts.Clock,
	}, nil
}

// Next reads and analyzes one frame. It returns early when ctx is done.
func (s *PoseSource) Next(ctx context.Context) (source.Observation, error) {
	return source.Blocking(ctx, s.read)
}

func (s *PoseSource) read() (source.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, err := s.camera.ReadFrame()
	if err != nil {
		return source.Observation{}, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	at := s.clock()

	if s.gate != nil {
		changed, percent := s.gate.Changed(frame)
		if !changed && s.last != nil {
			s.skipped++
			s.logger.Trace("frame unchanged, reusing detection", "change_percent", percent)
			return source.Observation{Time: at, Hands: clonePoses(s.last)}, nil
		}
	}

	hands, err := s.detector.Detect(frame)
	if err != nil {
		return source.Observation{}, fmt.Errorf("detect hands: %w", err)
	}
	if hands == nil {
		hands = []hand.Pose{}
	}
	s.last = hands

	s.logger.Trace("frame analyzed", "hands", len(hands))
	return source.Observation{Time: at, Hands: clonePoses(hands)}, nil
}

// Skipped returns how many frames reused the previous detection.
func (s *PoseSource) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

// Close releases the camera, the detector and the gate.
func (s *PoseSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gate != nil {
		s.gate.Close()
	}
	camErr := s.camera.Close()
	detErr := s.detector.Close()
	if camErr != nil {
		return camErr
	}
	return detErr
}

func clonePoses(in []hand.Pose) []hand.Pose {
	out := make([]hand.Pose, len(in))
	copy(out, in)
	return out
}
