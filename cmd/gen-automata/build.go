package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nhttp/gen-automata/internal/artifact"
	"github.com/nhttp/gen-automata/internal/automaton"
	"github.com/nhttp/gen-automata/internal/config"
	"github.com/nhttp/gen-automata/internal/emit"
	"github.com/nhttp/gen-automata/internal/grammar"
	"github.com/nhttp/gen-automata/internal/logging"
	"github.com/nhttp/gen-automata/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// builtinConfig is used when no grammar file is given.
func builtinConfig() *config.Config {
	cfg := &config.Config{
		ConfigVersion: 1,
		Grammar:       config.GrammarConfig{Name: grammar.NHTTPName, Builtin: grammar.NHTTPName},
	}
	cfg.ApplyDefaults()
	return cfg
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return builtinConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type compiled struct {
	grammar  *grammar.Grammar
	compiled *automaton.Result
}

func compileGrammar(cfg *config.Config) (*compiled, error) {
	g, err := cfg.BuildGrammar()
	if err != nil {
		return nil, err
	}
	res, err := automaton.Compile(g, automaton.Options{MaxDFAStates: cfg.Limits.MaxDFAStates})
	if err != nil {
		return nil, fmt.Errorf("grammar %s: %w", cfg.Grammar.Name, err)
	}
	return &compiled{grammar: g, compiled: res}, nil
}

func emitOptions(cfg *config.Config) emit.Options {
	return emit.Options{
		Package:    cfg.Output.Package,
		MaxStates:  cfg.Limits.MaxStates,
		MaxCapture: cfg.Limits.MaxCapture,
		Layout:     emit.Layout(cfg.Output.Layout),
		Source:     cfg.Grammar.Name,
	}
}

// builder runs the whole pipeline and reports every attempt to the build
// log and metrics.
type builder struct {
	cfg      *config.Config
	buildLog *logging.BuildLogger
	metrics  *observability.Metrics
	registry *prometheus.Registry
	closeLog func() error
	dryRun   bool
}

func (b *builder) openBuildLog(cfg *config.Config) error {
	if cfg.Logging.BuildLog == "" {
		return nil
	}
	buildLog, closeFn, err := logging.OpenBuildLog(cfg.ResolvePath(cfg.Logging.BuildLog))
	if err != nil {
		return fmt.Errorf("open build log: %w", err)
	}
	b.buildLog = buildLog
	b.closeLog = closeFn
	return nil
}

func (b *builder) close() {
	if b.closeLog != nil {
		_ = b.closeLog()
	}
	b.buildLog = nil
	b.closeLog = nil
}

// reconfigure swaps in a reloaded config and reopens the build log when its
// path changed. It returns the settings that stay bound to the startup
// config until the process restarts.
func (b *builder) reconfigure(next *config.Config) ([]string, error) {
	prev := b.cfg
	var fixed []string
	if next.Metrics.Enabled != prev.Metrics.Enabled {
		fixed = append(fixed, "metrics.enabled")
	}
	if next.Metrics.Listen != prev.Metrics.Listen {
		fixed = append(fixed, "metrics.listen")
	}
	if next.Logging.Level != prev.Logging.Level {
		fixed = append(fixed, "logging.level")
	}
	if next.Logging.Format != prev.Logging.Format {
		fixed = append(fixed, "logging.format")
	}
	if b.registry == nil && next.Metrics.Textfile != "" {
		fixed = append(fixed, "metrics.textfile")
	}

	if next.ResolvePath(next.Logging.BuildLog) != prev.ResolvePath(prev.Logging.BuildLog) {
		b.close()
		if err := b.openBuildLog(next); err != nil {
			return fixed, err
		}
	}
	b.cfg = next
	return fixed, nil
}

type buildOutput struct {
	compiled *compiled
	artifact *emit.Artifact
	written  bool
}

func (b *builder) build(ctx context.Context, trigger string) (*buildOutput, error) {
	start := time.Now()
	record := logging.BuildRecord{
		Timestamp: start.UTC(),
		Grammar:   b.cfg.Grammar.Name,
		Structure: b.cfg.Grammar.Structure,
		Trigger:   trigger,
		Layout:    b.cfg.Output.Layout,
	}

	out, err := b.run()
	if out != nil && out.compiled != nil {
		res := out.compiled.compiled
		record.Rules = len(out.compiled.grammar.Rules())
		record.NFAStates = res.NFAStates
		record.RawStates = res.RawStates
		record.States = res.DFA.Len()
		record.Ranges = len(res.Table.Ranges)
	}
	if out != nil && out.artifact != nil {
		record.InterfaceBytes = len(out.artifact.Interface)
		record.ImplementationBytes = len(out.artifact.Implementation)
	}
	record.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		record.Result = logging.ResultError
		record.ErrorKind = errorKind(err)
		record.Error = err.Error()
	} else {
		record.Result = logging.ResultOK
	}

	logger := logging.FromContext(ctx)
	if logErr := b.buildLog.Write(record); logErr != nil {
		logger.Warn("build log write failed", "err", logErr)
	}
	b.metrics.Observe(record)

	if err != nil {
		logger.ErrorContext(ctx, "build failed", "grammar", record.Grammar, "kind", record.ErrorKind, "err", err)
		return nil, err
	}
	logger.InfoContext(ctx, "build ok",
		"grammar", record.Grammar,
		"rules", record.Rules,
		"nfa_states", record.NFAStates,
		"subset_states", record.RawStates,
		"states", record.States,
		"written", out.written,
		"duration_ms", record.DurationMS,
	)
	return out, nil
}

func (b *builder) run() (*buildOutput, error) {
	c, err := compileGrammar(b.cfg)
	if err != nil {
		return nil, err
	}
	out := &buildOutput{compiled: c}

	art, err := emit.Emit(c.compiled.Table, emitOptions(b.cfg))
	if err != nil {
		return out, fmt.Errorf("emit: %w", err)
	}
	out.artifact = art
	if b.dryRun {
		return out, nil
	}

	iface := artifact.File{Path: b.cfg.InterfacePath(), Data: art.Interface}
	impl := artifact.File{Path: b.cfg.ImplementationPath(), Data: art.Implementation}
	if artifact.Unchanged(iface) && artifact.Unchanged(impl) {
		return out, nil
	}
	if err := artifact.WritePair(iface, impl); err != nil {
		return out, err
	}
	out.written = true
	return out, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, grammar.ErrDuplicateRule):
		return "duplicate_rule"
	case errors.Is(err, automaton.ErrAmbiguousGrammar):
		return "ambiguous_grammar"
	case errors.Is(err, emit.ErrEmissionLimitExceeded):
		return "emission_limit"
	}
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		return "invalid_config"
	}
	return "other"
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return logging.New(w, cfg.Logging.Level, cfg.Logging.Format)
}
