package main

import (
	"bytes"

	"github.com/nhttp/gen-automata/internal/emit"
	"github.com/nhttp/gen-automata/internal/report"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	var configPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the minimal automaton as a Graphviz dot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := compileGrammar(cfg)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := emit.Dot(c.compiled.Table, &buf); err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			return report.WriteOutput(outPath, buf.Bytes())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to grammar file (default: built-in nhttp grammar)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file path (default stdout)")

	return cmd
}
