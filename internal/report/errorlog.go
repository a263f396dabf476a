package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ayusman/gesturebench/internal/workflow"
)

// TimestampFormat is used for every timestamp written to CSV.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrorLogHeader is the first line of the error log.
var ErrorLogHeader = []string{"timestamp", "gesture_family", "flow_index", "step_index", "observed_label", "expected_label"}

// ErrorLog writes one CSV line per recorded mismatch. The file is recreated
// at the start of every batch.
type ErrorLog struct {
	path string

	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

var _ Sink = (*ErrorLog)(nil)

// NewErrorLog returns a sink writing to path. Nothing is created until Begin.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path}
}

// Path returns the log location.
func (l *ErrorLog) Path() string {
	return l.path
}

// Begin truncates the log and writes the header.
func (l *ErrorLog) Begin(batch *workflow.BatchResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create error log dir: %w", err)
	}

	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("create error log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(ErrorLogHeader); err != nil {
		f.Close()
		return fmt.Errorf("write error log header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write error log header: %w", err)
	}

	l.file, l.w = f, w
	return nil
}

// Run appends the run's error records.
func (l *ErrorLog) Run(batch *workflow.BatchResult, run workflow.RunResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return fmt.Errorf("error log %s: Run before Begin", l.path)
	}

	for _, rec := range run.Records {
		row := []string{
			rec.Time.Format(TimestampFormat),
			run.Family,
			strconv.Itoa(run.FlowIndex),
			strconv.Itoa(rec.Step),
			rec.Observed.String(),
			rec.Expected.String(),
		}
		if err := l.w.Write(row); err != nil {
			return fmt.Errorf("write error record: %w", err)
		}
	}
	l.w.Flush()
	return l.w.Error()
}

// End flushes and closes the log.
func (l *ErrorLog) End(batch *workflow.BatchResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	l.w.Flush()
	flushErr := l.w.Error()
	closeErr := l.file.Close()
	l.file, l.w = nil, nil

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
