package tools

import (
	"context"
	"errors"
	"testing"

	"teleop/internal/config"
	"teleop/internal/runner"
	"teleop/internal/runner/runnertest"
)

func meshSpec() ToolSpec {
	return ToolSpec{
		Name:       Mesh,
		Candidates: []string{"tailscale", "/Applications/Tailscale.app/Contents/MacOS/Tailscale", "/usr/local/bin/tailscale"},
		ProbeArgs:  []string{"version"},
	}
}

func newTestLocator(fake *runnertest.Fake, executable func(string) bool) *Locator {
	l := NewLocator(fake, map[string]ToolSpec{Mesh: meshSpec()}, 0, nil)
	l.executable = executable
	return l
}

func allExecutable(string) bool { return true }

func TestLocateReturnsFirstResponsiveCandidate(t *testing.T) {
	fake := runnertest.New()
	fake.Fail("/Applications/Tailscale.app/Contents/MacOS/Tailscale", 1, "broken")
	fake.Respond(runnertest.OK("1.66.4\n  tailscale commit: abc\n"), "/usr/local/bin/tailscale", "version")

	l := newTestLocator(fake, allExecutable)
	res, err := l.Locate(context.Background(), meshSpec())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if res.Path != "/usr/local/bin/tailscale" {
		t.Fatalf("path = %s", res.Path)
	}
	if res.Version != "1.66.4" {
		t.Fatalf("version = %q", res.Version)
	}
	if got := len(fake.Calls()); got != 3 {
		t.Fatalf("expected 3 probes, got %d: %v", got, fake.Lines())
	}
}

func TestLocateStopsAtFirstSuccess(t *testing.T) {
	fake := runnertest.New()
	fake.Succeed("tailscale", "1.70.0\n")

	l := newTestLocator(fake, allExecutable)
	if _, err := l.Locate(context.Background(), meshSpec()); err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if lines := fake.Lines(); len(lines) != 1 || lines[0] != "tailscale version" {
		t.Fatalf("calls = %v", lines)
	}
}

func TestLocateAllCandidatesFail(t *testing.T) {
	fake := runnertest.New()
	fake.Fail("/usr/local/bin/tailscale", 127, "")

	l := newTestLocator(fake, allExecutable)
	_, err := l.Locate(context.Background(), meshSpec())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || len(nf.Tried) != 3 {
		t.Fatalf("expected NotFoundError listing 3 candidates, got %#v", err)
	}
	if !runner.IsOperation(err) {
		t.Fatalf("last probe failure should be unwrapped, got %v", err)
	}
}

func TestLocateSkipsNonExecutableAbsolutePaths(t *testing.T) {
	fake := runnertest.New()
	l := newTestLocator(fake, func(string) bool { return false })

	if _, err := l.Locate(context.Background(), meshSpec()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
	if lines := fake.Lines(); len(lines) != 1 || lines[0] != "tailscale version" {
		t.Fatalf("absolute candidates should not be launched, calls = %v", lines)
	}
}

func TestLocateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := newTestLocator(runnertest.New(), allExecutable)
	if _, err := l.Locate(ctx, meshSpec()); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestFindUnknownTool(t *testing.T) {
	l := newTestLocator(runnertest.New(), allExecutable)
	if _, err := l.Find(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestLocateUsesStderrWhenStdoutEmpty(t *testing.T) {
	fake := runnertest.New()
	fake.HandleProgram("python3", func(runner.Command) (runner.Result, error) {
		return runner.Result{Success: true, Stderr: "Python 3.7.9\n"}, nil
	})
	spec := ToolSpec{Name: Interpreter, Candidates: []string{"python3"}, ProbeArgs: []string{"--version"}, Minimum: "3.8"}
	l := NewLocator(fake, map[string]ToolSpec{Interpreter: spec}, 0, nil)

	statuses := l.Survey(context.Background(), "linux")
	if len(statuses) != 1 {
		t.Fatalf("statuses = %v", statuses)
	}
	st := statuses[0]
	if !st.Available || st.Version != "3.7.9" {
		t.Fatalf("status = %+v", st)
	}
	if st.Satisfied || st.Error == "" {
		t.Fatalf("3.7.9 should not satisfy 3.8: %+v", st)
	}
}

func TestSurveyAddsHintsForMissingTools(t *testing.T) {
	l := newTestLocator(runnertest.New(), func(string) bool { return false })
	statuses := l.Survey(context.Background(), "darwin")
	if len(statuses) != 1 || statuses[0].Available {
		t.Fatalf("statuses = %+v", statuses)
	}
	if len(statuses[0].Notes) == 0 {
		t.Fatal("expected install hints")
	}
}

func TestApplyOverrides(t *testing.T) {
	table := Table("darwin")
	table = applyOverrides(table, map[string]config.ToolConfig{
		Mesh:     {Candidates: []string{"/custom/tailscale"}},
		"ffmpeg": {Candidates: []string{"ffmpeg"}},
	})
	if got := table[Mesh].Candidates; len(got) != 1 || got[0] != "/custom/tailscale" {
		t.Fatalf("mesh candidates = %v", got)
	}
	if got := table[Mesh].ProbeArgs; len(got) != 1 || got[0] != "version" {
		t.Fatalf("probe args should be kept, got %v", got)
	}
	if _, ok := table["ffmpeg"]; !ok {
		t.Fatal("unknown override should be added")
	}
	if Table("darwin")[Mesh].Candidates[0] != "tailscale" {
		t.Fatal("overrides leaked into the built-in table")
	}
}

func TestTablesListCandidatesNameFirst(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		table := Table(goos)
		for _, name := range []string{Mesh, Media, Interpreter} {
			spec, ok := table[name]
			if !ok {
				t.Fatalf("%s: missing %s", goos, name)
			}
			if len(spec.Candidates) == 0 || len(spec.ProbeArgs) == 0 {
				t.Fatalf("%s/%s: incomplete spec %+v", goos, name, spec)
			}
		}
	}
}
