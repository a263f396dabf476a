// Package sourcetest builds pose streams that classify to known gestures,
// for tests and replay fixtures.
package sourcetest

import (
	"bufio"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/hand"
	"github.com/ayusman/gesturebench/internal/source"
)

// Start is the timestamp of the first tick of every script.
var Start = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

var posturePoses = map[gesture.Label]func() hand.Pose{
	gesture.PresentationOn:  hand.Shaka,
	gesture.PresentationOff: hand.LShape,
	gesture.Next:            hand.Pointing,
	gesture.Previous:        hand.PinkyOnly,
	gesture.Play:            func() hand.Pose { return hand.OKSign(true) },
	gesture.Stop:            func() hand.Pose { return hand.Raised(false, true, true, true, true) },
	gesture.Blank:           hand.Peace,
}

var countingPoses = map[gesture.Label]func() hand.Pose{
	gesture.PresentationOn:  hand.ThumbOnly,
	gesture.PresentationOff: hand.Fist,
	gesture.Next:            hand.Pointing,
	gesture.Previous:        hand.Peace,
	gesture.Play:            func() hand.Pose { return hand.Raised(false, true, true, true, false) },
	gesture.Stop:            func() hand.Pose { return hand.Raised(false, true, true, true, true) },
	gesture.Blank:           hand.OpenPalm,
}

// Pose returns a pose that classifies to label under profile. Unknown, or
// a label the profile cannot produce, yields false.
func Pose(profile gesture.Profile, label gesture.Label) (hand.Pose, bool) {
	poses := posturePoses
	if profile == gesture.Counting {
		poses = countingPoses
	}
	fn, ok := poses[label]
	if !ok {
		return hand.Pose{}, false
	}
	return fn(), true
}

// Script returns one tick per label, step apart. Unknown becomes a tick
// without any hand.
func Script(profile gesture.Profile, step time.Duration, labels ...gesture.Label) []source.Observation {
	obs := make([]source.Observation, len(labels))
	for i, l := range labels {
		obs[i].Time = Start.Add(time.Duration(i) * step)
		if p, ok := Pose(profile, l); ok {
			obs[i].Hands = []hand.Pose{p}
		}
	}
	return obs
}

// WriteReplay writes obs as a JSONL recording readable by source.OpenReplay.
func WriteReplay(path string, obs []source.Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for i, o := range obs {
		line, err := json.Marshal(o)
		if err != nil {
			f.Close()
			return fmt.Errorf("encode tick %d: %w", i, err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
