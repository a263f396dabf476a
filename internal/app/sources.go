package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/gesturebench/internal/source"
	"github.com/ayusman/gesturebench/internal/workflow"
)

// RecordingExt is the file extension of recorded pose streams.
const RecordingExt = ".jsonl"

// RecordingPath is where the pose stream of a workflow is recorded in dir.
func RecordingPath(dir string, wf *workflow.Workflow) string {
	return filepath.Join(dir, wf.Name+RecordingExt)
}

// ReplayDir replays each workflow from its recording in dir.
func ReplayDir(dir string, realtime bool) SourceFactory {
	return func(ctx context.Context, wf *workflow.Workflow) (source.PoseSource, error) {
		return source.OpenReplay(RecordingPath(dir, wf), realtime)
	}
}

// Recorded tees the sources opened by open into one recording per workflow
// in dir, replacing earlier recordings.
func Recorded(open SourceFactory, dir string) SourceFactory {
	return func(ctx context.Context, wf *workflow.Workflow) (source.PoseSource, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create recording dir: %w", err)
		}

		src, err := open(ctx, wf)
		if err != nil {
			return nil, err
		}

		f, err := os.Create(RecordingPath(dir, wf))
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("create recording: %w", err)
		}
		return source.Record(src, f), nil
	}
}
