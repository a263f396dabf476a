package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ayusman/gesturebench/internal/app"
	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/report"
	"github.com/ayusman/gesturebench/internal/source"
)

var (
	replayProfile  string
	replayWorkflow string
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Classify or run a recorded pose stream",
	Long: `Replay a pose recording made with "run --record-dir".

Without --workflow every tick is classified under --profile and the label
counts are printed. With --workflow the recording is run against that
workflow exactly as a live run would be.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayProfile, "profile", "p", string(gesture.KindPosture), "Classification profile")
	replayCmd.Flags().StringVarP(&replayWorkflow, "workflow", "w", "", "Run the recording against this workflow")
}

func runReplay(cmd *cobra.Command, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())

	src, err := source.OpenReplay(path, false)
	if err != nil {
		return err
	}
	defer src.Close()

	if replayWorkflow == "" {
		profile, err := gesture.ParseProfile(replayProfile)
		if err != nil {
			return err
		}
		counts, total, err := countLabels(cmd, src, profile)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), countTable(counts, total))
		return nil
	}

	wfs := cfg.WorkflowList(replayWorkflow)
	if len(wfs) != 1 {
		return fmt.Errorf("--workflow must name exactly one workflow, %q matches %d", replayWorkflow, len(wfs))
	}

	sess, err := app.NewSession(wfs[0], src, app.SessionConfig{
		Cooldown:    cfg.Cooldown.Std(),
		TickTimeout: cfg.TickTimeout.Std(),
		Policy:      cfg.Policy(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	run, err := sess.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", run.Workflow, report.SummaryLine(run.Summary))
	for _, rec := range run.Records {
		fmt.Fprintf(out, "  step %d: expected %s, saw %s (%s)\n", rec.Step+1, rec.Expected, rec.Observed, rec.Kind)
	}
	return nil
}

// countLabels classifies every tick of src under profile.
func countLabels(cmd *cobra.Command, src source.PoseSource, profile gesture.Profile) (map[gesture.Label]int, int, error) {
	counts := make(map[gesture.Label]int)
	total := 0
	for {
		obs, err := src.Next(cmd.Context())
		if errors.Is(err, io.EOF) {
			return counts, total, nil
		}
		if err != nil {
			return nil, 0, err
		}
		counts[gesture.ClassifyHands(obs.Hands, profile)]++
		total++
	}
}

func countTable(counts map[gesture.Label]int, total int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Gesture", "Ticks").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	labels := append(slices.Clone(gesture.Labels), gesture.Unknown)
	for _, l := range labels {
		if counts[l] > 0 {
			t.Row(l.String(), strconv.Itoa(counts[l]))
		}
	}
	t.Row("total", strconv.Itoa(total))
	return t.Render()
}
