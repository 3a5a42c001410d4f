package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/engine"
	"github.com/meikuraledutech/workflow/logging"
	"github.com/meikuraledutech/workflow/script"
)

var errRunFailed = errors.New("run failed")

func newRunCmd(f *rootFlags) *cobra.Command {
	var (
		input      string
		engineName string
	)
	cmd := &cobra.Command{
		Use:   "run <workflow.json>",
		Short: "Execute a workflow file locally and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := readWorkflow(args[0])
			if err != nil {
				return err
			}
			var in any
			if err := json.Unmarshal([]byte(input), &in); err != nil {
				return fmt.Errorf("--input: %w", err)
			}
			eval, err := script.New(engineName)
			if err != nil {
				return err
			}

			log := logging.New(f.logLevelOr("warn"), f.logFormat, os.Stderr)
			res := engine.New(nil, eval, engine.WithLogger(log)).Run(cmd.Context(), w, in)
			res, _ = workflow.EncodeOutput(res)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if res.Status == workflow.StatusError {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "{}", "input payload as JSON")
	cmd.Flags().StringVarP(&engineName, "engine", "e", script.Starlark, "script engine: starlark, expr or govaluate")
	return cmd
}

func (f *rootFlags) logLevelOr(def string) string {
	if f.logLevel != "" {
		return f.logLevel
	}
	return def
}

func readWorkflow(path string) (*workflow.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w workflow.Workflow
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &w, nil
}
