package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"teleop/internal/bootstrap"
	"teleop/internal/config"
	"teleop/internal/history"
	"teleop/internal/install"
	"teleop/internal/logx"
	"teleop/internal/mesh"
	"teleop/internal/metrics"
	"teleop/internal/paths"
	"teleop/internal/runner"
	"teleop/internal/secrets"
	"teleop/internal/tools"
)

// app bundles the collaborators every command builds from flags and config.
type app struct {
	paths   paths.HostPaths
	cfg     config.Config
	logger  *slog.Logger
	runner  runner.Runner
	locator *tools.Locator
	sink    *logx.Sink
}

func loadApp(cmd *cobra.Command) (*app, error) {
	pp, err := paths.Resolve(supportDir)
	if err != nil {
		return nil, err
	}
	cfgFile := pp.ConfigFile
	if configPath != "" {
		cfgFile = configPath
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Errors(cfg.Validate()); err != nil {
		return nil, err
	}
	pp = paths.ApplyConfig(pp, cfg)

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	sink := logx.NewSink(pp.LogFile)
	logger := logx.NewLogger(io.MultiWriter(cmd.ErrOrStderr(), sink.Writer()), logx.ParseLevel(level))
	r := runner.New(logger)

	return &app{
		paths:   pp,
		cfg:     cfg,
		logger:  logger,
		runner:  r,
		locator: tools.NewLocator(r, tools.Specs(cfg), cfg.ProbeTimeout(), logger),
		sink:    sink,
	}, nil
}

func (a *app) env() install.Env {
	return install.Env{
		Runner:  a.runner,
		Locator: a.locator,
		HTTP:    &http.Client{Timeout: 10 * time.Minute},
		Paths:   a.paths,
		Config:  a.cfg,
		Logger:  a.logger,
	}
}

func (a *app) mesh() *mesh.Client {
	return mesh.New(a.runner, a.locator, a.cfg.Mesh.QuitGUICommand, a.logger)
}

func (a *app) secrets() (secrets.Store, error) {
	return secrets.Open(a.cfg.Secrets, a.paths)
}

// session carries the optional run sinks opened for one orchestrated command.
type session struct {
	store     *history.Store
	collector *metrics.Collector
}

func (s *session) close() {
	if s.store != nil {
		s.store.Close()
	}
}

// orchestrator wires history, metrics and the journal around a fresh
// orchestrator. History failures are logged, never fatal.
func (a *app) orchestrator(extra ...bootstrap.Observer) (*bootstrap.Orchestrator, *session) {
	sess := &session{collector: metrics.New()}
	observers := append([]bootstrap.Observer{bootstrap.NewJournal(a.sink), sess.collector}, extra...)

	opts := bootstrap.Options{
		Env:       a.env(),
		Observers: observers,
		Logger:    a.logger,
	}
	if store, err := history.Open(a.paths.StateDB); err != nil {
		a.logger.Warn("run history unavailable", "path", a.paths.StateDB, "err", err)
	} else {
		sess.store = store
		opts.Recorder = store
	}
	return bootstrap.New(opts), sess
}

func (a *app) flushMetrics(sess *session) {
	if err := sess.collector.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("write metrics textfile", "err", err)
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printText(cmd *cobra.Command, text string) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, text)
	if len(text) == 0 || text[len(text)-1] != '\n' {
		fmt.Fprintln(out)
	}
}
