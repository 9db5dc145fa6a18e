package install

import (
	"context"
	"fmt"

	"teleop/internal/runner"
	"teleop/internal/tools"
)

// Pip installs the messaging binding with the system interpreter's package
// installer. It always runs.
type Pip struct {
	env      Env
	packages []string
}

// NewMessagingPip returns the networked messaging binding installer.
func NewMessagingPip(env Env) *Pip {
	return &Pip{env: env, packages: env.Config.Messaging.Packages}
}

func (p *Pip) Step() string { return StepMessaging }

func (p *Pip) Install(ctx context.Context) (Outcome, error) {
	t := &transcript{step: StepMessaging}
	python, err := p.env.Locator.Find(ctx, tools.Interpreter)
	if err != nil {
		return failed(t, &runner.OperationError{Step: StepMessaging, Err: fmt.Errorf("interpreter: %w", err)})
	}
	args := append([]string{"-m", "pip", "install"}, p.packages...)
	if _, err := p.env.run(ctx, t, runner.Command{Program: python.Path, Args: args}); err != nil {
		return failed(t, err)
	}
	return done(t, StatusInstalled)
}
