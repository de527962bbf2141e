package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nhttp/gen-automata/internal/config"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:          "gen-automata",
		Short:        "Compile HTTP header grammars into streaming Go parsers",
		SilenceUsage: true,
	}

	root.AddCommand(newCompileCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newTraceCmd())
	root.AddCommand(newCoverageCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, msg := range verr.Problems {
				fmt.Fprintln(os.Stderr, msg)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a grammar file and check that it compiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("config path is required")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			res, err := compileGrammar(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "grammar ok: %d rules, %d states\n", len(res.grammar.Rules()), res.compiled.DFA.Len())
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to grammar file")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version=%s commit=%s buildDate=%s\n", version, commit, buildDate)
		},
	}
}
