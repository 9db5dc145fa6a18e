// Package install provisions the external dependencies teleop needs. Every
// installer checks its own precondition first, so re-running one is safe.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"teleop/internal/config"
	"teleop/internal/paths"
	"teleop/internal/runner"
	"teleop/internal/tools"
)

// Step names shared by installers, the orchestrator and its report.
const (
	StepMesh      = "mesh-client"
	StepMedia     = "media-toolkit"
	StepVenv      = "venv"
	StepMessaging = "messaging-binding"
)

// Status is the terminal state of one install step.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusPresent   Status = "present"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome is the result of one installer invocation.
type Outcome struct {
	Step     string
	Status   Status
	Log      string
	Err      error
	Artifact string
	Digest   string
}

// OK reports whether the step ended without error.
func (o Outcome) OK() bool { return o.Err == nil && o.Status != StatusFailed }

// Installer provisions one dependency. The returned error, when non-nil, is a
// *runner.LaunchError or *runner.OperationError and is also stored in
// Outcome.Err.
type Installer interface {
	Step() string
	Install(ctx context.Context) (Outcome, error)
}

// Locator finds tools by logical name.
type Locator interface {
	Find(ctx context.Context, name string) (tools.Resolved, error)
}

// Env carries the collaborators every installer needs.
type Env struct {
	Runner  runner.Runner
	Locator Locator
	HTTP    *http.Client
	Paths   paths.HostPaths
	Config  config.Config
	Logger  *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

func (e Env) httpClient() *http.Client {
	if e.HTTP == nil {
		return http.DefaultClient
	}
	return e.HTTP
}

// transcript accumulates the log of one step.
type transcript struct {
	step string
	b    strings.Builder
}

func (t *transcript) printf(format string, args ...any) {
	fmt.Fprintf(&t.b, format, args...)
	if !strings.HasSuffix(t.b.String(), "\n") {
		t.b.WriteByte('\n')
	}
}

func (t *transcript) String() string { return t.b.String() }

// run executes cmd and records it. A launch failure is returned unchanged; a
// nonzero exit becomes an OperationError for the step.
func (e Env) run(ctx context.Context, t *transcript, cmd runner.Command) (runner.Result, error) {
	t.printf("$ %s", cmd)
	res, err := e.Runner.Run(ctx, cmd)
	if err != nil {
		t.printf("%v", err)
		return res, err
	}
	if out := res.Combined(); out != "" {
		t.printf("%s", out)
	}
	if !res.Success {
		return res, runner.Failed(t.step, res)
	}
	return res, nil
}

// present short-circuits a step when tool already answers its probe.
func (e Env) present(ctx context.Context, step, tool string) (Outcome, bool) {
	res, err := e.Locator.Find(ctx, tool)
	if err != nil {
		if !errors.Is(err, tools.ErrNotFound) {
			e.logger().Debug("presence check failed", "step", step, "tool", tool, "err", err)
		}
		return Outcome{}, false
	}
	msg := fmt.Sprintf("%s already present at %s", tool, res.Path)
	if res.Version != "" {
		msg += " (" + res.Version + ")"
	}
	return Outcome{Step: step, Status: StatusPresent, Log: msg + "\n"}, true
}

func done(t *transcript, status Status) (Outcome, error) {
	return Outcome{Step: t.step, Status: status, Log: t.String()}, nil
}

func failed(t *transcript, err error) (Outcome, error) {
	return Outcome{Step: t.step, Status: StatusFailed, Log: t.String(), Err: err}, err
}

// expand substitutes the artifact path into an installer command template.
func expand(template []string, artifact string) (runner.Command, error) {
	if len(template) == 0 {
		return runner.Command{}, errors.New("empty installer command")
	}
	args := make([]string, len(template)-1)
	for i, arg := range template[1:] {
		args[i] = strings.ReplaceAll(arg, config.ArtifactPlaceholder, artifact)
	}
	return runner.Command{Program: template[0], Args: args}, nil
}
