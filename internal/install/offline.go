package install

import (
	"context"
	"fmt"

	"teleop/internal/bundle"
	"teleop/internal/paths"
	"teleop/internal/runner"
	"teleop/internal/tools"
)

// BundledPackage installs a dependency from an installer package shipped in
// the resources directory. A missing package is a skip, not a failure.
type BundledPackage struct {
	env   Env
	step  string
	tool  string
	dir   string
	query string
}

// NewMeshBundled returns the offline mesh client installer.
func NewMeshBundled(env Env) *BundledPackage {
	b := env.Config.Bundle
	return &BundledPackage{env: env, step: StepMesh, tool: tools.Mesh, dir: env.Paths.Resource(b.MeshDir), query: b.MeshPrefix}
}

// NewMediaBundled returns the offline media toolkit installer.
func NewMediaBundled(env Env) *BundledPackage {
	b := env.Config.Bundle
	return &BundledPackage{env: env, step: StepMedia, tool: tools.Media, dir: env.Paths.Resource(b.MediaDir), query: b.MediaPrefix}
}

func (b *BundledPackage) Step() string { return b.step }

func (b *BundledPackage) Install(ctx context.Context) (Outcome, error) {
	if out, ok := b.env.present(ctx, b.step, b.tool); ok {
		return out, nil
	}
	t := &transcript{step: b.step}

	pkg, ok := bundle.Find(b.dir, b.query, bundle.PackageRule(b.env.Config.Bundle.PackageExt))
	if !ok {
		t.printf("%s package not bundled in %s", b.query, b.dir)
		return done(t, StatusSkipped)
	}
	digest, err := bundle.Digest(pkg)
	if err != nil {
		return failed(t, &runner.OperationError{Step: b.step, Err: err})
	}
	cmd, err := expand(b.env.Config.Bundle.InstallerCommand, pkg)
	if err != nil {
		return failed(t, &runner.OperationError{Step: b.step, Err: err})
	}
	if _, err := b.env.run(ctx, t, cmd); err != nil {
		return failed(t, err)
	}
	out, _ := done(t, StatusInstalled)
	out.Artifact = pkg
	out.Digest = digest
	return out, nil
}

// Venv creates the isolated interpreter environment under the support
// directory. An existing directory is left untouched.
type Venv struct {
	env Env
}

// NewVenv returns the venv creation step.
func NewVenv(env Env) *Venv { return &Venv{env: env} }

func (v *Venv) Step() string { return StepVenv }

func (v *Venv) Install(ctx context.Context) (Outcome, error) {
	dir := v.env.Paths.VenvDir
	t := &transcript{step: StepVenv}
	exists, err := paths.DirExists(dir)
	if err != nil {
		return failed(t, &runner.OperationError{Step: StepVenv, Err: err})
	}
	if exists {
		t.printf("venv already exists at %s", dir)
		return done(t, StatusPresent)
	}

	python, err := v.env.Locator.Find(ctx, tools.Interpreter)
	if err != nil {
		return failed(t, &runner.OperationError{Step: StepVenv, Err: fmt.Errorf("interpreter: %w", err)})
	}
	if _, err := v.env.run(ctx, t, runner.Command{Program: python.Path, Args: []string{"-m", "venv", dir}}); err != nil {
		return failed(t, err)
	}
	return done(t, StatusInstalled)
}

// Wheel installs the bundled messaging binding wheel into the venv. No
// presence check is made; pip treats a reinstall as a no-op.
type Wheel struct {
	env Env
}

// NewWheel returns the offline messaging binding installer.
func NewWheel(env Env) *Wheel { return &Wheel{env: env} }

func (w *Wheel) Step() string { return StepMessaging }

func (w *Wheel) Install(ctx context.Context) (Outcome, error) {
	t := &transcript{step: StepMessaging}
	cfg := w.env.Config
	dir := w.env.Paths.Resource(cfg.Bundle.WheelsDir)

	whl, ok := bundle.Find(dir, cfg.Messaging.WheelPrefix, bundle.WheelRule())
	if !ok {
		t.printf("%s wheel not bundled in %s", cfg.Messaging.WheelPrefix, dir)
		return done(t, StatusSkipped)
	}
	pip := w.env.Paths.VenvPip()
	digest, err := bundle.Digest(whl)
	if err != nil {
		return failed(t, &runner.OperationError{Step: StepMessaging, Err: err})
	}
	if _, err := w.env.run(ctx, t, runner.Command{Program: pip, Args: []string{"install", whl}}); err != nil {
		return failed(t, err)
	}
	out, _ := done(t, StatusInstalled)
	out.Artifact = whl
	out.Digest = digest
	return out, nil
}
