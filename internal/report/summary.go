package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ayusman/gesturebench/internal/workflow"
)

// SummarySheet appends one row per batch: the batch identifier followed by an
// (elapsed seconds, error count) pair for each run in batch order. Rows from
// earlier batches are kept. A header precedes every row whose run count
// differs from the header above it.
type SummarySheet struct {
	path string
}

var _ Sink = (*SummarySheet)(nil)

// NewSummarySheet returns a sink appending to path.
func NewSummarySheet(path string) *SummarySheet {
	return &SummarySheet{path: path}
}

// Path returns the sheet location.
func (s *SummarySheet) Path() string {
	return s.path
}

func (s *SummarySheet) Begin(batch *workflow.BatchResult) error { return nil }

func (s *SummarySheet) Run(batch *workflow.BatchResult, run workflow.RunResult) error { return nil }

// End appends the batch row, writing a header first when the sheet is new or
// the previous header has a different run count.
func (s *SummarySheet) End(batch *workflow.BatchResult) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}

	width, err := lastHeaderWidth(s.path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open summary sheet: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if header := SummaryHeader(len(batch.Runs)); len(header) != width {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write summary header: %w", err)
		}
	}
	if err := w.Write(SummaryRow(batch)); err != nil {
		return fmt.Errorf("write summary row: %w", err)
	}
	w.Flush()
	return w.Error()
}

const batchIDColumn = "batch_id"

// SummaryHeader names the columns for a batch of n runs.
func SummaryHeader(n int) []string {
	header := []string{batchIDColumn}
	for i := 1; i <= n; i++ {
		header = append(header, fmt.Sprintf("run_%d_elapsed_s", i), fmt.Sprintf("run_%d_errors", i))
	}
	return header
}

// SummaryRow renders one batch. The elapsed cell of a run that failed or
// never started holds its outcome instead of a duration.
func SummaryRow(batch *workflow.BatchResult) []string {
	row := []string{batch.ID}
	for _, r := range batch.Runs {
		elapsed := strconv.FormatFloat(r.Summary.ElapsedSeconds(), 'f', 2, 64)
		if r.Failed() || !r.Summary.Started() {
			elapsed = string(r.Summary.Outcome)
		}
		row = append(row, elapsed, strconv.Itoa(r.Summary.ErrorCount))
	}
	return row
}

// lastHeaderWidth returns the column count of the newest header in the
// sheet, zero when the sheet is missing or has none.
func lastHeaderWidth(path string) (int, error) {
	rows, err := ReadSummary(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if len(rows[i]) > 0 && rows[i][0] == batchIDColumn {
			return len(rows[i]), nil
		}
	}
	return 0, nil
}

// ReadSummary loads every row of a summary sheet, header included.
func ReadSummary(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open summary sheet: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read summary sheet: %w", err)
		}
		rows = append(rows, row)
	}
}
