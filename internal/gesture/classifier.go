package gesture

import (
	"math"
	"strings"

	"github.com/ayusman/gesturebench/internal/hand"
)

// Finger positions within a FingerStates vector.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerStates holds one raised/curled flag per finger, ordered thumb, index,
// middle, ring, pinky.
type FingerStates [5]bool

// Count returns the number of raised fingers.
func (s FingerStates) Count() int {
	n := 0
	for _, up := range s {
		if up {
			n++
		}
	}
	return n
}

// String renders the vector as e.g. "UP,DOWN,DOWN,DOWN,UP".
func (s FingerStates) String() string {
	parts := make([]string, len(s))
	for i, up := range s {
		if up {
			parts[i] = "UP"
		} else {
			parts[i] = "DOWN"
		}
	}
	return strings.Join(parts, ",")
}

// ReadFingers derives the finger states of a pose.
//
// Image coordinates grow downward, so a finger is raised when its tip has a
// smaller Y than its PIP joint, i.e. sits higher in the frame. The thumb
// extends sideways rather than upward and is raised when its tip is more than
// ThumbExtension away from its MCP joint horizontally.
func ReadFingers(p *hand.Pose) FingerStates {
	var s FingerStates

	tip := p.Points[hand.ThumbTip]
	base := p.Points[hand.SecondJoint(hand.ThumbTip)]
	s[Thumb] = math.Abs(tip.X-base.X) > ThumbExtension

	for i, t := range hand.FingerTips {
		s[Index+i] = p.Points[t].Y < p.Points[hand.SecondJoint(t)].Y
	}

	return s
}

// Classify maps a single pose onto a label using the given profile. It never
// fails: a nil pose, an unmatched posture or an unrecognized profile all
// yield Unknown.
func Classify(p *hand.Pose, profile Profile) Label {
	if p == nil {
		return Unknown
	}

	states := ReadFingers(p)

	switch profile.Kind {
	case KindPosture:
		return classifyPosture(p, states)
	case KindCounting:
		return classifyCount(states)
	default:
		return Unknown
	}
}

// ClassifyHands classifies the first hand of an observation. Additional hands
// are ignored; no hand at all is Unknown.
func ClassifyHands(hands []hand.Pose, profile Profile) Label {
	if len(hands) == 0 {
		return Unknown
	}
	return Classify(&hands[0], profile)
}

func classifyPosture(p *hand.Pose, states FingerStates) Label {
	count := states.Count()

	for _, row := range postureTable {
		if row.states == nil {
			if count == row.count {
				return row.label
			}
			continue
		}

		if *row.states != states {
			continue
		}

		if row.pinch && !hand.Within(p.Points[hand.ThumbTip], p.Points[hand.IndexTip], PinchTolerance) {
			// Posture is right but the fingers are not touching
			return Unknown
		}
		return row.label
	}

	return Unknown
}

func classifyCount(states FingerStates) Label {
	count := states.Count()

	// One raised finger is disambiguated by which finger it is
	if count == 1 && states[Thumb] {
		return PresentationOn
	}

	switch count {
	case 0:
		return PresentationOff
	case 1:
		return Next
	case 2:
		return Previous
	case 3:
		return Play
	case 4:
		return Stop
	case 5:
		return Blank
	default:
		return Unknown
	}
}
