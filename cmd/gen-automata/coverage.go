package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/nhttp/gen-automata/internal/coverage"
	"github.com/spf13/cobra"
)

func newCoverageCmd() *cobra.Command {
	var (
		configPath string
		format     string
		crlf       bool
	)

	cmd := &cobra.Command{
		Use:   "coverage [samples...]",
		Short: "Report which grammar rules fire on a corpus of sample heads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := compileGrammar(cfg)
			if err != nil {
				return err
			}

			files, err := sampleFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.New("no sample files found")
			}

			analyzer := coverage.NewAnalyzer(c.grammar, c.compiled.Table, cfg.Limits.MaxCapture)
			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if crlf {
					data = toCRLF(data)
				}
				analyzer.Add(path, data)
			}

			rep := analyzer.Report()
			switch format {
			case "", "text":
				_, err = fmt.Fprint(cmd.OutOrStdout(), coverage.RenderText(rep))
				return err
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to grammar file (default: built-in nhttp grammar)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")
	cmd.Flags().BoolVar(&crlf, "crlf", false, "Convert bare LF line endings to CRLF before parsing")

	return cmd
}

// sampleFiles expands directories into the regular files below them.
func sampleFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
