package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"teleop/internal/config"
	"teleop/internal/fallback"
	"teleop/internal/runner"
)

// ErrNotFound is matched by errors.Is when no candidate of a tool responds to
// its liveness probe.
var ErrNotFound = errors.New("not found")

// NotFoundError reports every candidate that was tried for a tool.
type NotFoundError struct {
	Tool  string
	Tried []string
	Last  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (tried %s)", e.Tool, strings.Join(e.Tried, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return e.Last }

// Locator resolves logical tool names to runnable executables.
type Locator struct {
	runner     runner.Runner
	specs      map[string]ToolSpec
	timeout    time.Duration
	logger     *slog.Logger
	executable func(path string) bool
}

// NewLocator returns a locator over specs. Probes are bounded by timeout; a
// non-positive timeout uses config.DefaultProbeTimeout.
func NewLocator(r runner.Runner, specs map[string]ToolSpec, timeout time.Duration, logger *slog.Logger) *Locator {
	if timeout <= 0 {
		timeout = config.DefaultProbeTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Locator{
		runner:     r,
		specs:      specs,
		timeout:    timeout,
		logger:     logger,
		executable: isExecutable,
	}
}

// Find locates the tool registered under name.
func (l *Locator) Find(ctx context.Context, name string) (Resolved, error) {
	spec, ok := l.specs[name]
	if !ok {
		return Resolved{}, fmt.Errorf("unknown tool: %s", name)
	}
	return l.Locate(ctx, spec)
}

// Locate probes the candidates of spec in order and returns the first one
// whose probe exits successfully.
func (l *Locator) Locate(ctx context.Context, spec ToolSpec) (Resolved, error) {
	strategies := make([]fallback.Strategy[Resolved], 0, len(spec.Candidates))
	for _, candidate := range spec.Candidates {
		candidate := candidate
		strategies = append(strategies, func(ctx context.Context) (Resolved, error) {
			return l.probe(ctx, spec, candidate)
		})
	}

	res, err := fallback.First(ctx, strategies...)
	if err == nil {
		l.logger.Debug("tool located", "tool", spec.Name, "path", res.Path, "version", res.Version)
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Resolved{}, ctxErr
	}
	l.logger.Debug("tool not found", "tool", spec.Name, "err", err)
	return Resolved{}, &NotFoundError{Tool: spec.Name, Tried: spec.Candidates, Last: err}
}

func (l *Locator) probe(ctx context.Context, spec ToolSpec, candidate string) (Resolved, error) {
	if filepath.IsAbs(candidate) && !l.executable(candidate) {
		return Resolved{}, fmt.Errorf("%s: not executable", candidate)
	}
	res, err := l.runner.Run(ctx, runner.Command{
		Program: candidate,
		Args:    spec.ProbeArgs,
		Timeout: l.timeout,
	})
	if err != nil {
		return Resolved{}, err
	}
	if !res.Success {
		return Resolved{}, runner.Failed(candidate, res)
	}
	out := res.Stdout
	if strings.TrimSpace(out) == "" {
		out = res.Stderr
	}
	return Resolved{Tool: spec.Name, Path: candidate, Version: parseVersion(out)}, nil
}

// Survey locates every registered tool and reports its status, sorted by name.
func (l *Locator) Survey(ctx context.Context, goos string) []Status {
	statuses := make([]Status, 0, len(l.specs))
	for _, name := range Names(l.specs) {
		spec := l.specs[name]
		status := Status{Tool: name, Minimum: spec.Minimum, Tried: spec.Candidates}
		res, err := l.Locate(ctx, spec)
		if err != nil {
			status.Error = err.Error()
			status.Notes = installHints(name, goos)
			statuses = append(statuses, status)
			continue
		}
		status.Available = true
		status.Path = res.Path
		status.Version = res.Version
		status.Satisfied = meetsMinimum(res.Version, spec.Minimum)
		if !status.Satisfied {
			status.Error = fmt.Sprintf("version %s below minimum %s", res.Version, spec.Minimum)
		}
		statuses = append(statuses, status)
	}
	return statuses
}
