// Package preflight probes the runtime dependencies a session needs.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"teleop/internal/runner"
	"teleop/internal/tools"
)

// Check statuses.
const (
	StatusOK    = "ok"
	StatusWarn  = "warning"
	StatusError = "error"
)

// Check is one probe's verdict.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// OK reports whether the check passed.
func (c Check) OK() bool { return c.Status == StatusOK }

// Locator finds tools by logical name.
type Locator interface {
	Find(ctx context.Context, name string) (tools.Resolved, error)
}

// Checker runs the probes.
type Checker struct {
	runner  runner.Runner
	locator Locator
	// python overrides the interpreter used for the import check, normally
	// the bootstrap venv's interpreter when it exists.
	python      string
	importCheck string
}

// New returns a checker. python may be empty to use the located interpreter.
func New(r runner.Runner, loc Locator, python, importCheck string) *Checker {
	return &Checker{runner: r, locator: loc, python: python, importCheck: importCheck}
}

// Run executes every probe in a fixed order.
func (c *Checker) Run(ctx context.Context) []Check {
	return []Check{
		c.Media(ctx),
		c.Messaging(ctx),
		c.Mesh(ctx),
	}
}

// Media reports the media toolkit's version line.
func (c *Checker) Media(ctx context.Context) Check {
	return c.tool(ctx, "Media", tools.Media)
}

// Mesh reports the mesh client's version line.
func (c *Checker) Mesh(ctx context.Context) Check {
	return c.tool(ctx, "Mesh", tools.Mesh)
}

func (c *Checker) tool(ctx context.Context, label, name string) Check {
	res, err := c.locator.Find(ctx, name)
	if err != nil {
		return Check{Name: label, Status: StatusError, Summary: err.Error()}
	}
	summary := res.Version
	if summary == "" {
		summary = "present"
	}
	return Check{Name: label, Status: StatusOK, Summary: summary + " (" + res.Path + ")"}
}

// Messaging imports the messaging binding and reports its version.
func (c *Checker) Messaging(ctx context.Context) Check {
	python := c.python
	if python == "" {
		res, err := c.locator.Find(ctx, tools.Interpreter)
		if err != nil {
			return Check{Name: "Messaging", Status: StatusError, Summary: err.Error()}
		}
		python = res.Path
	}

	res, err := c.runner.Run(ctx, runner.Command{Program: python, Args: []string{"-c", c.importCheck}})
	if err != nil {
		return Check{Name: "Messaging", Status: StatusError, Summary: err.Error()}
	}
	if !res.Success {
		return Check{Name: "Messaging", Status: StatusError, Summary: lastLine(res.Stderr, fmt.Sprintf("import failed (exit %d)", res.ExitCode))}
	}
	return Check{Name: "Messaging", Status: StatusOK, Summary: "pyzmq " + lastLine(res.Stdout, "unknown version")}
}

func lastLine(s, fallback string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return fallback
}
