package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/workflow"
)

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <workflow.json>",
		Short: "Report how a workflow file will actually be walked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := readWorkflow(args[0])
			if err != nil {
				return err
			}
			issues := workflow.Lint(w)
			if len(issues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no issues")
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Kind", "Node", "Message"})
			for _, i := range issues {
				t.AppendRow(table.Row{i.Kind, i.NodeID, i.Message})
			}
			t.Render()
			return nil
		},
	}
}
