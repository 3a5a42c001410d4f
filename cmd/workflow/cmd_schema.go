package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create or drop the storage schema",
	}
	for _, action := range []string{"create", "drop"} {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: action + " the workflow and execution tables",
			Args:  cobra.NoArgs,
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

				if action == "create" {
					err = store.CreateSchema(cmd.Context())
				} else {
					err = store.DropSchema(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema %sd\n", action)
				return nil
			},
		})
	}
	return cmd
}
