package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"autosar/internal/export"
	"autosar/internal/loader"
)

var loadFormat string

var loadCmd = &cobra.Command{
	Use:   "load [sources...]",
	Short: "Load and validate a model",
	Long: `Load ARXML sources into one model, validate it and print a summary.

Loading is all-or-nothing: the first unresolved reference, type mismatch or
structural violation aborts the session.

Examples:
  arxml load models/
  arxml load sensor.arxml calculator.arxml.gz
  arxml load --format=json`,
	RunE: withEnv(runLoad),
}

func init() {
	loadCmd.Flags().StringVar(&loadFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(loadCmd)
}

// LoadResponseCLI is the load command output
type LoadResponseCLI struct {
	Summary    *export.Summary       `json:"summary"`
	Documents  []loader.DocumentInfo `json:"documents"`
	DurationMs int64                 `json:"durationMs"`
}

func runLoad(ctx context.Context, env *cliEnv, cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(loadFormat)
	if err != nil {
		return err
	}
	res, err := env.load(ctx, args)
	if err != nil {
		return err
	}

	output, err := FormatResponse(&LoadResponseCLI{
		Summary:    export.Summarize(res.Workspace),
		Documents:  res.Documents,
		DurationMs: res.Duration.Milliseconds(),
	}, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
