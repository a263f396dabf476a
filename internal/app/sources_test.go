package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gesturebench/internal/hand"
	"github.com/ayusman/gesturebench/internal/source"
	"github.com/ayusman/gesturebench/internal/workflow"
)

func TestRecordThenReplay(t *testing.T) {
	dir := t.TempDir()
	wf := postureFlow()

	scripts := map[string][]source.Observation{
		wf.Name: ticks(time.Second, pose(hand.Shaka()), pose(hand.Pointing()), nil, pose(hand.PinkyOnly())),
	}

	cfg := testBatchConfig(nil)
	live, err := NewBatch([]*workflow.Workflow{wf}, Recorded(scriptedFactory(scripts), dir), cfg)
	require.NoError(t, err)
	first, err := live.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, RecordingPath(dir, wf))

	replay, err := NewBatch([]*workflow.Workflow{wf}, ReplayDir(dir, false), cfg)
	require.NoError(t, err)
	second, err := replay.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, second.Runs, 1)
	assert.Equal(t, workflow.OutcomeCompleted, second.Runs[0].Summary.Outcome)
	assert.Equal(t, first.Runs[0].Summary, second.Runs[0].Summary)
}

func TestReplayDir_Missing(t *testing.T) {
	_, err := ReplayDir(t.TempDir(), false)(context.Background(), postureFlow())
	assert.Error(t, err)
}
