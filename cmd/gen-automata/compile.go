package main

import (
	"context"
	"fmt"

	"github.com/nhttp/gen-automata/internal/config"
	"github.com/nhttp/gen-automata/internal/logging"
	"github.com/nhttp/gen-automata/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newCompileCmd() *cobra.Command {
	var (
		configPath string
		outDir     string
		layout     string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a grammar and write the parser artifacts",
		Long:  "Compile a grammar file (or the built-in nhttp grammar when --config is omitted) into an interface and an implementation Go file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Output.Dir = outDir
			}
			if layout != "" {
				cfg.Output.Layout = layout
			}

			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := logging.WithLogger(cmd.Context(), logger)

			b, cleanup, err := newBuilder(cfg, nil)
			if err != nil {
				return err
			}
			defer cleanup()
			b.dryRun = dryRun

			out, err := b.build(ctx, "compile")
			if err != nil {
				return err
			}
			if err := writeTextfile(ctx, cfg, b); err != nil {
				return err
			}

			if dryRun {
				return printArtifacts(cmd, out)
			}
			status := "unchanged"
			if out.written {
				status = "written"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %s (%d states)\n",
				status, cfg.InterfacePath(), cfg.ImplementationPath(), out.compiled.compiled.DFA.Len())
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to grammar file (default: built-in nhttp grammar)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Override output directory")
	cmd.Flags().StringVar(&layout, "layout", "", "Override transition table layout (ranges|classes)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the artifacts instead of writing them")

	return cmd
}

// newBuilder opens the build log and, when metrics are enabled or reg is
// given, a metrics registry. The returned cleanup closes the build log.
func newBuilder(cfg *config.Config, reg *prometheus.Registry) (*builder, func(), error) {
	b := &builder{cfg: cfg}
	if err := b.openBuildLog(cfg); err != nil {
		return nil, nil, err
	}

	if reg != nil || cfg.Metrics.Enabled || cfg.Metrics.Textfile != "" {
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		b.registry = reg
		b.metrics = observability.NewMetrics(reg)
	}
	return b, b.close, nil
}

func writeTextfile(ctx context.Context, cfg *config.Config, b *builder) error {
	if cfg.Metrics.Textfile == "" || b.registry == nil {
		return nil
	}
	path := cfg.ResolvePath(cfg.Metrics.Textfile)
	if err := observability.WriteTextfile(b.registry, path); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	logging.FromContext(ctx).Debug("metrics textfile written", "path", path)
	return nil
}

func printArtifacts(cmd *cobra.Command, out *buildOutput) error {
	w := cmd.OutOrStdout()
	if _, err := w.Write(out.artifact.Interface); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	_, err := w.Write(out.artifact.Implementation)
	return err
}

