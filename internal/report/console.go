package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ayusman/gesturebench/internal/workflow"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.Color("10"))
	warnStyle   = cellStyle.Foreground(lipgloss.Color("11"))
	failStyle   = cellStyle.Foreground(lipgloss.Color("9"))
)

// SummaryLine is the one-line console message printed after each run.
func SummaryLine(s workflow.Summary) string {
	switch s.Outcome {
	case workflow.OutcomeCompleted:
		return fmt.Sprintf("Workflow completed in %.2fs", s.ElapsedSeconds())
	case workflow.OutcomeIncomplete:
		return fmt.Sprintf("Workflow stopped at step %d/%d after %.2fs", s.StepsDone, s.Steps, s.ElapsedSeconds())
	case workflow.OutcomeFailed:
		return "Workflow failed."
	default:
		return "Workflow was not started."
	}
}

// Console prints a line per run and a table for the whole batch.
type Console struct {
	out io.Writer
}

var _ Sink = (*Console)(nil)

// NewConsole writes to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Begin(batch *workflow.BatchResult) error {
	_, err := fmt.Fprintln(c.out, titleStyle.Render("Batch "+batch.ID))
	return err
}

func (c *Console) Run(batch *workflow.BatchResult, run workflow.RunResult) error {
	line := SummaryLine(run.Summary)
	if run.Err != nil {
		line = fmt.Sprintf("%s %v", line, run.Err)
	}
	_, err := fmt.Fprintf(c.out, "[%d] %s: %s\n", run.Index+1, run.Workflow, line)
	return err
}

func (c *Console) End(batch *workflow.BatchResult) error {
	_, err := fmt.Fprintln(c.out, RenderTable(batch))
	return err
}

// RenderTable lays out one row per run with totals underneath.
func RenderTable(batch *workflow.BatchResult) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Workflow", "Family", "Outcome", "Steps", "Elapsed (s)", "Errors", "Unknown").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(batch.Runs) {
				return outcomeStyle(batch.Runs[row].Summary.Outcome)
			}
			return cellStyle
		})

	for _, r := range batch.Runs {
		t.Row(
			strconv.Itoa(r.Index+1),
			r.Workflow,
			r.Family,
			string(r.Summary.Outcome),
			fmt.Sprintf("%d/%d", r.Summary.StepsDone, r.Summary.Steps),
			strconv.FormatFloat(r.Summary.ElapsedSeconds(), 'f', 2, 64),
			strconv.Itoa(r.Summary.ErrorCount),
			strconv.Itoa(r.Summary.FalseNegatives),
		)
	}

	elapsed, errs := batch.Totals()
	totals := fmt.Sprintf("%d/%d completed, %.2fs total, %d errors",
		batch.Completed(), len(batch.Runs), elapsed.Seconds(), errs)

	return lipgloss.JoinVertical(lipgloss.Left, t.Render(), titleStyle.Render(totals))
}

func outcomeStyle(o workflow.Outcome) lipgloss.Style {
	switch o {
	case workflow.OutcomeCompleted:
		return okStyle
	case workflow.OutcomeFailed:
		return failStyle
	default:
		return warnStyle
	}
}
