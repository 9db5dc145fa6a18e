package mesh

import (
	"context"
	"errors"
	"strings"
	"testing"

	"teleop/internal/runner"
	"teleop/internal/runner/runnertest"
	"teleop/internal/tools"
)

type stubLocator struct {
	path string
}

func (s stubLocator) Find(_ context.Context, name string) (tools.Resolved, error) {
	if s.path == "" {
		return tools.Resolved{}, &tools.NotFoundError{Tool: name}
	}
	return tools.Resolved{Tool: name, Path: s.path, Version: "1.66.4"}, nil
}

const cli = "/Applications/Tailscale.app/Contents/MacOS/Tailscale"

func TestStatusNotFound(t *testing.T) {
	c := New(runnertest.New(), stubLocator{}, nil, nil)
	_, err := c.Status(context.Background())
	if !errors.Is(err, tools.ErrNotFound) || !strings.Contains(err.Error(), "tailscale CLI not found") {
		t.Fatalf("got %v", err)
	}
}

func TestStatusJSON(t *testing.T) {
	fake := runnertest.New()
	fake.Respond(runnertest.OK(`{"BackendState":"Running"}`), cli, "status", "--json")
	c := New(fake, stubLocator{path: cli}, nil, nil)

	out, err := c.Status(context.Background())
	if err != nil || out != `{"BackendState":"Running"}` {
		t.Fatalf("out = %q, err = %v", out, err)
	}
}

func TestNetcheckFallsBackToFormatFlag(t *testing.T) {
	fake := runnertest.New()
	fake.Respond(runner.Result{ExitCode: 2, Stderr: "flag provided but not defined: -json"}, cli, "netcheck", "--json")
	fake.Respond(runnertest.OK(`{"UDP":true}`), cli, "netcheck", "--format=json")
	c := New(fake, stubLocator{path: cli}, nil, nil)

	out, err := c.Netcheck(context.Background())
	if err != nil || out != `{"UDP":true}` {
		t.Fatalf("out = %q, err = %v", out, err)
	}
	if len(fake.Calls()) != 2 {
		t.Fatalf("calls = %v", fake.Lines())
	}
}

func TestNetcheckBothFail(t *testing.T) {
	fake := runnertest.New()
	fake.Fail(cli, 1, "netcheck failed")
	c := New(fake, stubLocator{path: cli}, nil, nil)

	if _, err := c.Netcheck(context.Background()); !runner.IsOperation(err) {
		t.Fatalf("got %v", err)
	}
}

func TestUpWithReset(t *testing.T) {
	fake := runnertest.New()
	fake.Respond(runnertest.OK("Success."), cli, "up", "--reset", "--authkey", "tskey-1")
	c := New(fake, stubLocator{path: cli}, nil, nil)

	out, err := c.Up(context.Background(), "tskey-1", true)
	if err != nil || out != "Success." {
		t.Fatalf("out = %q, err = %v", out, err)
	}
	if lines := fake.Lines(); lines[0] != cli+" up --reset --authkey ***" {
		t.Fatalf("key should be masked in command lines: %v", lines)
	}
}

func TestUpFailureCarriesOutput(t *testing.T) {
	fake := runnertest.New()
	fake.Fail(cli, 1, "backend error: invalid key: unable to validate API key")
	c := New(fake, stubLocator{path: cli}, nil, nil)

	_, err := c.Up(context.Background(), "bad", false)
	if !runner.IsOperation(err) || !strings.Contains(err.Error(), "invalid key") {
		t.Fatalf("got %v", err)
	}
	if fake.Calls()[0].Args[1] != "--authkey" {
		t.Fatalf("reset flag should be absent: %v", fake.Calls()[0].Args)
	}
}

func TestUpRequiresKey(t *testing.T) {
	fake := runnertest.New()
	c := New(fake, stubLocator{path: cli}, nil, nil)
	if _, err := c.Up(context.Background(), " ", false); err == nil {
		t.Fatal("expected error")
	}
	if len(fake.Calls()) != 0 {
		t.Fatal("nothing should run without a key")
	}
}

func TestQuitGUI(t *testing.T) {
	fake := runnertest.New()
	fake.Fail("osascript", 1, "Tailscale got an error: Application isn't running.")
	c := New(fake, stubLocator{}, []string{"osascript", "-e", `tell application "Tailscale" to quit`}, nil)

	out, err := c.QuitGUI(context.Background())
	if err != nil {
		t.Fatalf("nonzero exit should not fail: %v", err)
	}
	if !strings.Contains(out, "isn't running") {
		t.Fatalf("out = %q", out)
	}

	none := New(fake, stubLocator{}, nil, nil)
	if _, err := none.QuitGUI(context.Background()); !runner.IsOperation(err) {
		t.Fatalf("got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	doc := `{
		"BackendState": "Running",
		"Self": {"HostName": "rover-1", "DNSName": "rover-1.tail.ts.net.", "TailscaleIPs": ["100.64.0.1"], "Online": true},
		"Peer": {"a": {}, "b": {}}
	}`
	s, err := ParseStatus(doc)
	if err != nil {
		t.Fatal(err)
	}
	if s.BackendState != "Running" || s.HostName != "rover-1" || s.Peers != 2 || !s.Online {
		t.Fatalf("summary = %+v", s)
	}
	if _, err := ParseStatus("not json"); err == nil {
		t.Fatal("expected parse error")
	}
}
