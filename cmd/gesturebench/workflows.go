package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ayusman/gesturebench/internal/workflow"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows [workflow|family...]",
	Short: "List the configured workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		wfs := cfg.WorkflowList(args...)
		if len(wfs) == 0 {
			return fmt.Errorf("no workflow matches %v", args)
		}
		fmt.Fprintln(cmd.OutOrStdout(), workflowTable(wfs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workflowsCmd)
}

func workflowTable(wfs []*workflow.Workflow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Family", "Profile", "Start", "Steps", "Script").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, wf := range wfs {
		t.Row(wf.Name, wf.FamilyName(), wf.Profile.String(), wf.Start.String(), strconv.Itoa(wf.Len()), wf.String())
	}
	return t.Render()
}
