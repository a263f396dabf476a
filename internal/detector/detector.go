// Package detector turns camera frames into hand poses.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/gesturebench/internal/hand"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected hands in the
	// order the estimator reports them. Returns an empty slice if no hands
	// are detected.
	Detect(frame *gocv.Mat) ([]hand.Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int `yaml:"max_hands" toml:"max_hands" json:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence" toml:"min_confidence" json:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence" toml:"min_tracking_confidence" json:"min_tracking_confidence"`

	// Script overrides the location of the MediaPipe service script.
	Script string `yaml:"script" toml:"script" json:"script"`

	// Python overrides the interpreter used to run the service script.
	Python string `yaml:"python" toml:"python" json:"python"`
}

// DefaultConfig returns a Config with sensible default values.
// Only the first hand is classified, so one hand is enough.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
