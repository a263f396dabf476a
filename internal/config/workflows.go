package config

import (
	"fmt"

	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/workflow"
)

var (
	on    = gesture.PresentationOn
	off   = gesture.PresentationOff
	next  = gesture.Next
	prev  = gesture.Previous
	play  = gesture.Play
	stop  = gesture.Stop
	blank = gesture.Blank
)

// scripts are the three benchmark sequences, each run once per profile.
var scripts = [][]gesture.Label{
	{on, next, next, next, prev, next, next, play, stop, blank, blank, next, off},
	{on, next, play, stop, blank, blank, next, prev, blank, blank, next, next, next, off},
	{on, next, next, next, prev, next, next, play, stop, blank, blank, next, off},
}

// DefaultWorkflows returns the posture family followed by the counting
// family, three scripts each.
func DefaultWorkflows() []workflow.Workflow {
	var wfs []workflow.Workflow
	for _, profile := range []gesture.Profile{gesture.Posture, gesture.Counting} {
		for i, steps := range scripts {
			s := make([]gesture.Label, len(steps))
			copy(s, steps)
			wfs = append(wfs, workflow.Workflow{
				Name:    fmt.Sprintf("%s-%d", profile, i+1),
				Family:  profile.String(),
				Profile: profile,
				Start:   profile.StartLabel(),
				Steps:   s,
			})
		}
	}
	return wfs
}
