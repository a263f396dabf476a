package main

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gesturebench/internal/app"
	"github.com/ayusman/gesturebench/internal/config"
	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/report"
	"github.com/ayusman/gesturebench/internal/source/sourcetest"
	"github.com/ayusman/gesturebench/internal/store"
)

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeRecordings records a flawless performance of every named default
// workflow into dir.
func writeRecordings(t *testing.T, dir string, names ...string) {
	t.Helper()
	cfg := config.Default()
	for _, wf := range cfg.WorkflowList(names...) {
		obs := sourcetest.Script(wf.Profile, 3*time.Second, wf.Steps...)
		require.NoError(t, sourcetest.WriteReplay(app.RecordingPath(dir, wf), obs))
	}
}

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "gesturebench version test-version-1.0.0")
}

func TestGetVersionInfo(t *testing.T) {
	originalCommit, originalDate := gitCommit, buildDate
	gitCommit, buildDate = "abc123", "2025-03-14"
	defer func() { gitCommit, buildDate = originalCommit, originalDate }()

	info := GetVersionInfo()
	assert.Contains(t, info, "commit: abc123")
	assert.Contains(t, info, "built: 2025-03-14")
}

func TestWorkflowsCmd(t *testing.T) {
	out, err := execute(t, "workflows", "--data-dir", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, "posture-1")
	assert.Contains(t, out, "counting-3")
	assert.Contains(t, out, "PRESENTATION_ON -> NEXT")
}

func TestWorkflowsCmd_Filter(t *testing.T) {
	out, err := execute(t, "workflows", "counting")

	require.NoError(t, err)
	assert.Contains(t, out, "counting-2")
	assert.NotContains(t, out, "posture-1")

	_, err = execute(t, "workflows", "nope")
	assert.Error(t, err)
}

func TestWorkflowsCmd_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workflows:
  - name: warmup
    profile: counting
    steps: [NEXT, PREVIOUS]
`), 0o644))

	out, err := execute(t, "workflows", "--config", path)

	require.NoError(t, err)
	assert.Contains(t, out, "warmup")
	assert.NotContains(t, out, "posture-1")
}

func TestRunCmd_Replay(t *testing.T) {
	replays := t.TempDir()
	data := t.TempDir()
	writeRecordings(t, replays, "posture-1", "counting-1")

	out, err := execute(t, "run", "posture-1", "counting-1",
		"--replay-dir", replays, "--data-dir", data,
		"--no-server", "--dry-run", "--order", "in-order")

	require.NoError(t, err)
	assert.Contains(t, out, "Starting posture-1 (1/2)")
	assert.Contains(t, out, "posture-1: Workflow completed in 36.00s")
	assert.Contains(t, out, "counting-1: Workflow completed in 36.00s")

	assert.FileExists(t, filepath.Join(data, "error_log.csv"))
	rows, err := report.ReadSummary(filepath.Join(data, "user_performance.csv"))
	require.NoError(t, err)
	assert.Len(t, rows, 2, "header and one batch row")

	st, err := store.New(filepath.Join(data, "gesturebench.db"))
	require.NoError(t, err)
	defer st.Close()
	batches, err := st.Batches().List(0)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].Runs)
}

func TestRunCmd_RecordThenReplay(t *testing.T) {
	replays := t.TempDir()
	recorded := t.TempDir()
	writeRecordings(t, replays, "counting-2")

	_, err := execute(t, "run", "counting-2", "--replay-dir", replays, "--record-dir", recorded,
		"--data-dir", t.TempDir(), "--no-server", "--dry-run")
	require.NoError(t, err)

	out, err := execute(t, "run", "counting-2", "--replay-dir", recorded,
		"--data-dir", t.TempDir(), "--no-server", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "counting-2: Workflow completed")
}

func TestRunCmd_MissingRecordingFailsRun(t *testing.T) {
	out, err := execute(t, "run", "posture-2", "--replay-dir", t.TempDir(),
		"--data-dir", t.TempDir(), "--no-server", "--dry-run")

	require.NoError(t, err, "a failed run does not fail the batch")
	assert.Contains(t, out, "posture-2: Workflow failed.")
}

func TestRunCmd_StatusAddressTaken(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()
	t.Setenv("GESTUREBENCH_HTTP_ADDR", taken.Addr().String())

	replays := t.TempDir()
	writeRecordings(t, replays, "posture-1", "posture-2")

	out, err := execute(t, "run", "posture-1", "posture-2", "--replay-dir", replays,
		"--data-dir", t.TempDir(), "--dry-run", "--order", "in-order")

	require.NoError(t, err)
	assert.Contains(t, out, "posture-1: Workflow completed")
	assert.Contains(t, out, "posture-2: Workflow completed")
}

func TestRunCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "unknown workflow",
			args: []string{"run", "nope"},
			want: "no workflow matches",
		},
		{
			name: "unknown order",
			args: []string{"run", "posture-1", "--order", "sideways"},
			want: "unknown run order",
		},
		{
			name: "missing config",
			args: []string{"run", "--config", "/does/not/exist.yaml"},
			want: "load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--data-dir", t.TempDir(), "--no-server", "--dry-run")
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReplayCmd_Counts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	obs := sourcetest.Script(gesture.Posture, time.Second,
		gesture.PresentationOn, gesture.Next, gesture.Next, gesture.Unknown)
	require.NoError(t, sourcetest.WriteReplay(path, obs))

	out, err := execute(t, "replay", path)

	require.NoError(t, err)
	assert.Contains(t, out, "NEXT")
	assert.Contains(t, out, "UNKNOWN")
	assert.Contains(t, out, "total")

	_, err = execute(t, "replay", path, "--profile", "sideways")
	assert.Error(t, err)
}

func TestReplayCmd_Workflow(t *testing.T) {
	dir := t.TempDir()
	writeRecordings(t, dir, "posture-3")

	out, err := execute(t, "replay", filepath.Join(dir, "posture-3.jsonl"), "--workflow", "posture-3")

	require.NoError(t, err)
	assert.Contains(t, out, "posture-3: Workflow completed")

	_, err = execute(t, "replay", filepath.Join(dir, "posture-3.jsonl"), "--workflow", "posture")
	assert.Error(t, err, "a family matches several workflows")
}

func TestFindWebDir_DataDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", findWebDir(dir))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "web"), 0o755))
	assert.Equal(t, filepath.Join(dir, "web"), findWebDir(dir))
}

func TestNewLogger_UnknownLevel(t *testing.T) {
	logger := newLogger("shouty", io.Discard)
	assert.True(t, logger.IsInfo())
	assert.False(t, logger.IsDebug())
}
