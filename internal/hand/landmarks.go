// Package hand defines the hand-pose data produced by a pose estimator.
package hand

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FingerTips lists the tip landmarks of the four non-thumb fingers,
// ordered index, middle, ring, pinky.
var FingerTips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// SecondJoint returns the joint two landmarks below a fingertip (the PIP joint
// for the four fingers, the MCP joint for the thumb).
func SecondJoint(tip int) int {
	return tip - 2
}

// Point3D is a landmark position. X and Y are normalized to the image frame
// ([0,1] each, origin top-left, Y growing downward); Z is the estimator's
// relative depth and is not used for classification.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pose is the set of 21 landmarks for one detected hand in one observation tick.
type Pose struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Within reports whether a and b are closer than tol along both the X and Y axes.
func Within(a, b Point3D, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol
}
