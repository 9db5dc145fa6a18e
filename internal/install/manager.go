package install

import (
	"context"
	"errors"
	"fmt"

	"teleop/internal/fallback"
	"teleop/internal/runner"
	"teleop/internal/tools"
)

// Manager installs a dependency through the host package manager,
// bootstrapping the manager first when it is missing. Every package install
// is attempted even when an earlier one fails.
type Manager struct {
	env       Env
	step      string
	tool      string
	packages  []string
	scriptURL string
}

// NewMediaManager returns the networked media toolkit installer.
func NewMediaManager(env Env) *Manager {
	return &Manager{
		env:       env,
		step:      StepMedia,
		tool:      tools.Media,
		packages:  env.Config.Media.Packages,
		scriptURL: env.Config.Media.ManagerScriptURL,
	}
}

func (m *Manager) Step() string { return m.step }

func (m *Manager) Install(ctx context.Context) (Outcome, error) {
	if out, ok := m.env.present(ctx, m.step, m.tool); ok {
		return out, nil
	}
	t := &transcript{step: m.step}

	manager, err := fallback.First[tools.Resolved](ctx,
		func(ctx context.Context) (tools.Resolved, error) {
			return m.env.Locator.Find(ctx, tools.PackageManager)
		},
		func(ctx context.Context) (tools.Resolved, error) {
			return m.bootstrapManager(ctx, t)
		},
	)
	if err != nil {
		return failed(t, err)
	}
	t.printf("using package manager %s", manager.Path)

	if _, err := m.env.run(ctx, t, runner.Command{Program: manager.Path, Args: []string{"update"}}); err != nil {
		if runner.IsLaunch(err) {
			return failed(t, err)
		}
		t.printf("update failed, continuing")
	}

	var errs []error
	var missing []string
	for _, pkg := range m.packages {
		_, err := m.env.run(ctx, t, runner.Command{Program: manager.Path, Args: []string{"install", pkg}})
		if err == nil {
			continue
		}
		if runner.IsLaunch(err) {
			return failed(t, err)
		}
		missing = append(missing, pkg)
		errs = append(errs, fmt.Errorf("%s: %w", pkg, err))
	}
	if len(errs) > 0 {
		return failed(t, &runner.OperationError{
			Step:   m.step,
			Output: t.String(),
			Err:    fmt.Errorf("%d of %d packages failed %v: %w", len(missing), len(m.packages), missing, errors.Join(errs...)),
		})
	}
	return done(t, StatusInstalled)
}

// bootstrapManager runs the manager's non-interactive install script and
// locates the manager again.
func (m *Manager) bootstrapManager(ctx context.Context, t *transcript) (tools.Resolved, error) {
	if m.scriptURL == "" {
		return tools.Resolved{}, &runner.OperationError{Step: m.step, Err: errors.New("package manager not found and no install script configured")}
	}
	script := fmt.Sprintf(`/bin/bash -c "$(curl -fsSL %s)"`, m.scriptURL)
	res, err := m.env.run(ctx, t, runner.Command{
		Program: "/bin/bash",
		Args:    []string{"-c", script},
		Env:     []string{"NONINTERACTIVE=1"},
	})
	if err != nil {
		if runner.IsLaunch(err) {
			return tools.Resolved{}, err
		}
		return tools.Resolved{}, &runner.OperationError{Step: m.step, Output: res.Combined(), Err: errors.New("package manager install failed")}
	}
	resolved, err := m.env.Locator.Find(ctx, tools.PackageManager)
	if err != nil {
		return tools.Resolved{}, &runner.OperationError{Step: m.step, Err: fmt.Errorf("package manager not found after install: %w", err)}
	}
	return resolved, nil
}
