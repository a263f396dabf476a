package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/workflow"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "bench.db")

	_, err := os.Stat(dbPath)
	require.True(t, os.IsNotExist(err))

	s, err := New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	assert.Equal(t, dbPath, s.Path())
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"batches", "runs", "run_errors"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bench.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(dbPath)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestNewStore_InMemory(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Batches().Create(&Batch{ID: "b1", StartedAt: time.Now()}))
	got, err := s.Batches().GetByID("b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
}

func TestBatchRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Batches()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(&Batch{ID: "older", StartedAt: start}))
	require.NoError(t, repo.Create(&Batch{ID: "newer", StartedAt: start.Add(time.Hour)}))

	got, err := repo.GetByID("older")
	require.NoError(t, err)
	assert.True(t, got.StartedAt.Equal(start))
	assert.True(t, got.EndedAt.IsZero())
	assert.Zero(t, got.Runs)

	end := start.Add(5 * time.Minute)
	require.NoError(t, repo.Finish("older", end))
	got, err = repo.GetByID("older")
	require.NoError(t, err)
	assert.True(t, got.EndedAt.Equal(end))

	list, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)

	list, err = repo.List(1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.True(t, errors.Is(repo.Finish("missing", end), ErrNotFound))
	_, err = repo.GetByID("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Error(t, repo.Create(&Batch{ID: "older", StartedAt: start}), "duplicate id")
}

func sampleRun(index int, at time.Time) workflow.RunResult {
	return workflow.RunResult{
		Index:     index,
		FlowIndex: index + 1,
		Workflow:  "Workflow 1",
		Family:    "posture",
		Summary: workflow.Summary{
			Workflow:       "Workflow 1",
			Outcome:        workflow.OutcomeCompleted,
			StartedAt:      at,
			EndedAt:        at.Add(4500 * time.Millisecond),
			Elapsed:        4500 * time.Millisecond,
			ErrorCount:     1,
			FalseNegatives: 2,
			StepsDone:      3,
			Steps:          3,
		},
		Records: []workflow.ErrorRecord{
			{Time: at.Add(time.Second), Step: 1, Expected: gesture.Next, Observed: gesture.Play, Kind: workflow.Misclassification},
			{Time: at.Add(2 * time.Second), Step: 2, Expected: gesture.Previous, Observed: gesture.Unknown, Kind: workflow.FalseNegative},
		},
	}
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Batches().Create(&Batch{ID: "b1", StartedAt: at}))

	id, err := s.Runs().Create("b1", sampleRun(0, at))
	require.NoError(t, err)

	run, err := s.Runs().GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, "b1", run.BatchID)
	assert.Equal(t, 1, run.FlowIndex)
	assert.Equal(t, workflow.OutcomeCompleted, run.Outcome)
	assert.Equal(t, 4500*time.Millisecond, run.Elapsed)
	assert.Equal(t, 1, run.ErrorCount)
	assert.Equal(t, 2, run.FalseNegatives)
	assert.Equal(t, 3, run.StepsDone)
	assert.True(t, run.StartedAt.Equal(at))
	assert.Empty(t, run.Error)

	records, err := s.Runs().Errors(id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, gesture.Next, records[0].Expected)
	assert.Equal(t, gesture.Play, records[0].Observed)
	assert.Equal(t, workflow.Misclassification, records[0].Kind)
	assert.Equal(t, workflow.FalseNegative, records[1].Kind)
	assert.True(t, records[1].Time.Equal(at.Add(2*time.Second)))

	b, err := s.Batches().GetByID("b1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Runs)
}

func TestRunRepository_FailedRun(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Batches().Create(&Batch{ID: "b1", StartedAt: time.Now()}))

	wf := &workflow.Workflow{Name: "Workflow 4", Family: "counting", Steps: []gesture.Label{gesture.Next}}
	id, err := s.Runs().Create("b1", workflow.FailedRun(3, 1, wf, errors.New("camera unplugged")))
	require.NoError(t, err)

	run, err := s.Runs().GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeFailed, run.Outcome)
	assert.Equal(t, "camera unplugged", run.Error)
	assert.True(t, run.StartedAt.IsZero())
	assert.Zero(t, run.Elapsed)

	records, err := s.Runs().Errors(id)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunRepository_Listing(t *testing.T) {
	s := newTestStore(t)
	at := time.Now().UTC()
	require.NoError(t, s.Batches().Create(&Batch{ID: "b1", StartedAt: at}))
	require.NoError(t, s.Batches().Create(&Batch{ID: "b2", StartedAt: at}))

	for _, idx := range []int{1, 0, 2} {
		_, err := s.Runs().Create("b1", sampleRun(idx, at))
		require.NoError(t, err)
	}
	_, err := s.Runs().Create("b2", sampleRun(0, at))
	require.NoError(t, err)

	runs, err := s.Runs().ListByBatch("b1")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, r := range runs {
		assert.Equal(t, i, r.Index)
	}

	recent, err := s.Runs().Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b2", recent[0].BatchID)
	assert.Greater(t, recent[0].ID, recent[1].ID)

	none, err := s.Runs().ListByBatch("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRunRepository_Constraints(t *testing.T) {
	s := newTestStore(t)
	at := time.Now()

	_, err := s.Runs().Create("no-such-batch", sampleRun(0, at))
	assert.Error(t, err, "foreign key")

	require.NoError(t, s.Batches().Create(&Batch{ID: "b1", StartedAt: at}))
	_, err = s.Runs().Create("b1", sampleRun(0, at))
	require.NoError(t, err)
	_, err = s.Runs().Create("b1", sampleRun(0, at))
	assert.Error(t, err, "duplicate run index")

	_, err = s.Runs().GetByID(999)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Runs().Errors(999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBatchRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	at := time.Now()
	require.NoError(t, s.Batches().Create(&Batch{ID: "b1", StartedAt: at}))
	id, err := s.Runs().Create("b1", sampleRun(0, at))
	require.NoError(t, err)

	require.NoError(t, s.Batches().Delete("b1"))

	_, err = s.Runs().GetByID(id)
	assert.True(t, errors.Is(err, ErrNotFound))

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM run_errors").Scan(&n))
	assert.Zero(t, n)

	assert.True(t, errors.Is(s.Batches().Delete("b1"), ErrNotFound))
}

func TestSink(t *testing.T) {
	s := newTestStore(t)
	sink := s.Sink()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	batch := &workflow.BatchResult{ID: "batch-1", StartedAt: at}

	require.NoError(t, sink.Begin(batch))
	run := sampleRun(0, at)
	batch.Runs = append(batch.Runs, run)
	require.NoError(t, sink.Run(batch, run))
	batch.EndedAt = at.Add(time.Minute)
	require.NoError(t, sink.End(batch))

	got, err := s.Batches().GetByID("batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Runs)
	assert.True(t, got.EndedAt.Equal(at.Add(time.Minute)))

	runs, err := s.Runs().ListByBatch("batch-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Workflow 1", runs[0].Workflow)
}
