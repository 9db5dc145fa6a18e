package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"teleop/internal/bundle"
	"teleop/internal/config"
	"teleop/internal/runner"
	"teleop/internal/tools"
)

// Download fetches an installer package to a fixed path and hands it to the
// host's privileged package installer. Either failure aborts the step.
type Download struct {
	env       Env
	step      string
	tool      string
	url       string
	dest      string
	installer []string
}

// NewMeshDownload returns the networked mesh client installer that uses the
// vendor package.
func NewMeshDownload(env Env) *Download {
	return &Download{
		env:       env,
		step:      StepMesh,
		tool:      tools.Mesh,
		url:       env.Config.Mesh.PackageURL,
		dest:      env.Config.Mesh.PackagePath,
		installer: env.Config.Bundle.InstallerCommand,
	}
}

func (d *Download) Step() string { return d.step }

func (d *Download) Install(ctx context.Context) (Outcome, error) {
	if out, ok := d.env.present(ctx, d.step, d.tool); ok {
		return out, nil
	}
	t := &transcript{step: d.step}

	t.printf("downloading %s -> %s", d.url, d.dest)
	if err := d.fetch(ctx); err != nil {
		t.printf("%v", err)
		return failed(t, &runner.OperationError{Step: d.step, Output: t.String(), Err: fmt.Errorf("download failed: %w", err)})
	}
	digest, err := bundle.Digest(d.dest)
	if err != nil {
		return failed(t, &runner.OperationError{Step: d.step, Err: err})
	}

	cmd, err := expand(d.installer, d.dest)
	if err != nil {
		return failed(t, &runner.OperationError{Step: d.step, Err: err})
	}
	if _, err := d.env.run(ctx, t, cmd); err != nil {
		return failed(t, err)
	}
	out, _ := done(t, StatusInstalled)
	out.Artifact = d.dest
	out.Digest = digest
	return out, nil
}

func (d *Download) fetch(ctx context.Context) error {
	if d.url == "" || d.dest == "" {
		return errors.New("package url and path must be configured")
	}
	if err := os.MkdirAll(filepath.Dir(d.dest), 0o755); err != nil {
		return fmt.Errorf("prepare download destination: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "teleop/1.0")

	resp, err := d.env.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", d.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: unexpected status %s", d.url, resp.Status)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(d.dest), "download-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, d.dest); err != nil {
		return fmt.Errorf("finalize download: %w", err)
	}
	return nil
}

// Script installs the mesh client with the vendor's install script piped to
// a shell.
type Script struct {
	env  Env
	step string
	tool string
	url  string
}

// NewMeshScript returns the networked mesh client installer for hosts that
// use the vendor install script.
func NewMeshScript(env Env) *Script {
	return &Script{env: env, step: StepMesh, tool: tools.Mesh, url: env.Config.Mesh.ScriptURL}
}

func (s *Script) Step() string { return s.step }

func (s *Script) Install(ctx context.Context) (Outcome, error) {
	if out, ok := s.env.present(ctx, s.step, s.tool); ok {
		return out, nil
	}
	t := &transcript{step: s.step}
	if s.url == "" {
		return failed(t, &runner.OperationError{Step: s.step, Err: errors.New("no install script configured")})
	}
	cmd := runner.Command{Program: "sh", Args: []string{"-c", fmt.Sprintf("curl -fsSL %s | sh", s.url)}}
	if _, err := s.env.run(ctx, t, cmd); err != nil {
		return failed(t, err)
	}
	return done(t, StatusInstalled)
}

// NewMesh picks the networked mesh installer for the configured method.
func NewMesh(env Env) Installer {
	if env.Config.Mesh.InstallMethod == config.MeshInstallScript {
		return NewMeshScript(env)
	}
	return NewMeshDownload(env)
}
