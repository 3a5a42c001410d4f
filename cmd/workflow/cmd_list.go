package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newListCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored workflows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := f.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			all, err := store.ListWorkflows(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Name", "Nodes", "Edges", "Active", "Updated"})
			for _, w := range all {
				t.AppendRow(table.Row{w.ID, w.Name, len(w.Nodes), len(w.Edges), w.Active, w.UpdatedAt.Format(time.DateTime)})
			}
			t.Render()
			return nil
		},
	}
}
