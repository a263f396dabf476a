package gesture

import (
	"fmt"
	"strings"
)

// ProfileKind selects one of the interchangeable rule sets.
type ProfileKind string

const (
	// KindPosture matches the exact finger-state pattern against a fixed table.
	KindPosture ProfileKind = "posture"
	// KindCounting derives the gesture from the number of raised fingers.
	KindCounting ProfileKind = "counting"
)

// Classification thresholds, in normalized image units.
const (
	// ThumbExtension is the horizontal tip-to-MCP distance above which the thumb counts as raised.
	ThumbExtension = 0.1
	// PinchTolerance is the per-axis distance under which thumb and index tips count as touching.
	PinchTolerance = 0.05
)

// Profile is a named rule set mapping finger states onto labels.
type Profile struct {
	Kind ProfileKind
}

// Posture is the exact-pattern profile.
var Posture = Profile{Kind: KindPosture}

// Counting is the raised-finger-count profile.
var Counting = Profile{Kind: KindCounting}

// ParseProfile resolves a profile by name.
func ParseProfile(s string) (Profile, error) {
	switch ProfileKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPosture, "specific":
		return Posture, nil
	case KindCounting:
		return Counting, nil
	default:
		return Profile{}, fmt.Errorf("unknown classification profile %q", s)
	}
}

// StartLabel is the gesture that starts a workflow classified under this
// profile. Both profiles open a presentation; the counting profile reaches it
// through the thumb-only posture.
func (p Profile) StartLabel() Label {
	return PresentationOn
}

func (p Profile) String() string {
	return string(p.Kind)
}

// UnmarshalText lets profiles be decoded from configuration by name.
func (p *Profile) UnmarshalText(text []byte) error {
	parsed, err := ParseProfile(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText encodes the profile name.
func (p Profile) MarshalText() ([]byte, error) {
	return []byte(p.Kind), nil
}

// posturePattern is one row of the posture table. A nil states value matches
// on the raised-finger count instead of the exact pattern.
type posturePattern struct {
	states *FingerStates
	count  int
	label  Label
	pinch  bool // also requires thumb and index tips to touch
}

func pattern(thumb, index, middle, ring, pinky bool) *FingerStates {
	return &FingerStates{thumb, index, middle, ring, pinky}
}

// postureTable is evaluated top to bottom and the first match wins. The
// count-of-four row sits below the OK sign so that the OK sign, which also
// raises four fingers, is not swallowed by it.
var postureTable = []posturePattern{
	{states: pattern(false, true, true, false, false), label: Blank},
	{states: pattern(false, true, false, false, false), label: Next},
	{states: pattern(false, false, false, false, true), label: Previous},
	{states: pattern(true, false, true, true, true), label: Play, pinch: true},
	{count: 4, label: Stop},
	{states: pattern(true, false, false, false, true), label: PresentationOn},
	{states: pattern(true, true, false, false, false), label: PresentationOff},
}
