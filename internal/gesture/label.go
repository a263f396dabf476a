// Package gesture maps hand poses onto a fixed vocabulary of control gestures.
package gesture

import (
	"fmt"
	"strings"
)

// Label is a discrete gesture drawn from a closed vocabulary.
type Label string

const (
	// PresentationOn starts a presentation. The counting profile calls it "enter".
	PresentationOn Label = "PRESENTATION_ON"
	// PresentationOff ends a presentation. The counting profile calls it "exit".
	PresentationOff Label = "PRESENTATION_OFF"
	// Next advances one slide.
	Next Label = "NEXT"
	// Previous goes back one slide.
	Previous Label = "PREVIOUS"
	// Play starts embedded media.
	Play Label = "PLAY"
	// Stop stops embedded media.
	Stop Label = "STOP"
	// Blank blanks the screen.
	Blank Label = "BLANK"
	// Unknown means no confident classification this tick. It is not a gesture.
	Unknown Label = "UNKNOWN"
)

// Labels lists every real gesture, excluding Unknown.
var Labels = []Label{PresentationOn, PresentationOff, Next, Previous, Play, Stop, Blank}

// aliases maps the names used by older workflow scripts onto the vocabulary.
var aliases = map[string]Label{
	"PRESENTATION_MODE_ON":  PresentationOn,
	"ENTER":                 PresentationOn,
	"ENTER_PRESENTATION":    PresentationOn,
	"PRESENTATION_MODE_OFF": PresentationOff,
	"EXIT":                  PresentationOff,
	"EXIT_PRESENTATION":     PresentationOff,
	"NEXT_SLIDE":            Next,
	"PREVIOUS_SLIDE":        Previous,
	"PREV":                  Previous,
	"PLAY_VIDEO":            Play,
	"STOP_VIDEO":            Stop,
	"QUESTION_BLOCK":        Blank,
	"BLANK_SCREEN":          Blank,
}

// ParseLabel resolves a label name, case-insensitively, accepting the
// historic script aliases. Unknown is only returned for "UNKNOWN" itself.
func ParseLabel(s string) (Label, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == string(Unknown) {
		return Unknown, nil
	}
	for _, l := range Labels {
		if name == string(l) {
			return l, nil
		}
	}
	if l, ok := aliases[name]; ok {
		return l, nil
	}
	return "", fmt.Errorf("unknown gesture label %q", s)
}

// Known reports whether l is a real gesture rather than Unknown or an empty value.
func (l Label) Known() bool {
	for _, k := range Labels {
		if l == k {
			return true
		}
	}
	return false
}

func (l Label) String() string {
	if l == "" {
		return string(Unknown)
	}
	return string(l)
}

// UnmarshalText lets labels be decoded from YAML, TOML and JSON by name.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalText encodes the canonical label name.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
