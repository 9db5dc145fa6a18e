package install

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"teleop/internal/config"
	"teleop/internal/paths"
	"teleop/internal/runner/runnertest"
	"teleop/internal/tools"
)

type fakeLocator struct {
	mu    sync.Mutex
	found map[string]tools.Resolved
}

func newFakeLocator() *fakeLocator {
	return &fakeLocator{found: map[string]tools.Resolved{}}
}

func (f *fakeLocator) add(name, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.found[name] = tools.Resolved{Tool: name, Path: path, Version: "1.0"}
}

func (f *fakeLocator) Find(_ context.Context, name string) (tools.Resolved, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.found[name]; ok {
		return r, nil
	}
	return tools.Resolved{}, &tools.NotFoundError{Tool: name}
}

type fixture struct {
	env  Env
	run  *runnertest.Fake
	loc  *fakeLocator
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{run: runnertest.New(), loc: newFakeLocator(), root: root}
	cfg := config.DefaultFor("darwin")
	cfg.Mesh.PackagePath = filepath.Join(root, "tmp", "Tailscale.pkg")
	f.env = Env{
		Runner:  f.run,
		Locator: f.loc,
		Paths:   paths.ForDir(root),
		Config:  cfg,
	}
	return f
}

func (f *fixture) bundleFile(t *testing.T, rel string, names ...string) string {
	t.Helper()
	dir := f.env.Paths.Resource(rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
