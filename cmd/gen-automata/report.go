package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/nhttp/gen-automata/internal/logging"
	"github.com/nhttp/gen-automata/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var (
		inputPath   string
		since       string
		grammarName string
		failedOnly  bool
		format      string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize build logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("input path is required")
			}

			reader := report.Reader{Grammar: grammarName}
			if failedOnly {
				reader.Result = logging.ResultError
			}
			if since != "" {
				dur, err := time.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid since duration: %w", err)
				}
				reader.Since = time.Now().Add(-dur)
			}

			records, err := reader.Read(inputPath)
			if err != nil {
				return fmt.Errorf("read build log: %w", err)
			}

			summary := report.Summarize(records)
			summary.Filter = reader.Describe()
			data, err := report.Render(summary, format)
			if err != nil {
				return err
			}
			return report.WriteOutput(outPath, data)
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "Path to build log JSONL")
	cmd.Flags().StringVar(&since, "since", "", "Only include builds newer than this duration (e.g. 10m)")
	cmd.Flags().StringVar(&grammarName, "grammar", "", "Only include builds of this grammar")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only include failed builds")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|md|json")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file path (default stdout)")

	return cmd
}
