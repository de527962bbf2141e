package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nhttp/gen-automata/internal/config"
	"github.com/nhttp/gen-automata/internal/logging"
	"github.com/nhttp/gen-automata/internal/watch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile the grammar whenever its file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("config path is required")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cmd, configPath, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to grammar file")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, configPath string, cfg *config.Config) error {
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx = logging.WithLogger(ctx, logger)

	b, cleanup, err := newBuilder(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer cleanup()

	metricsSrv := startMetricsServer(ctx, cfg, b)
	defer func() {
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(context.Background())
		}
	}()

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rebuild := func(ctx context.Context, trigger string) {
		if _, err := b.build(ctx, trigger); err != nil {
			return
		}
		if err := writeTextfile(ctx, b.cfg, b); err != nil {
			logger.Warn("metrics textfile", "err", err)
		}
	}
	rebuild(signalCtx, "startup")

	return watch.Run(signalCtx, watch.Options{
		Paths:    []string{configPath},
		Debounce: cfg.Watch.Debounce,
		Logger:   logger,
		OnEvent: func(fsnotify.Event) {
			b.metrics.ObserveWatchEvent()
		},
		OnChange: func(ctx context.Context) {
			next, err := loadConfig(configPath)
			if err != nil {
				logger.ErrorContext(ctx, "grammar reload failed", "path", configPath, "err", err)
				return
			}
			fixed, err := b.reconfigure(next)
			if err != nil {
				logger.ErrorContext(ctx, "grammar reload failed", "path", configPath, "err", err)
				return
			}
			if len(fixed) > 0 {
				logger.WarnContext(ctx, "settings changed but apply only after restart", "settings", fixed)
			}
			rebuild(ctx, "watch")
		},
	})
}

func startMetricsServer(ctx context.Context, cfg *config.Config, b *builder) *http.Server {
	if !cfg.Metrics.Enabled || b.registry == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", b.metrics.Handler(b.registry))

	srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.FromContext(ctx).Error("metrics server", "err", err)
		}
	}()
	return srv
}
