// Package mesh drives the mesh networking client's CLI.
package mesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"teleop/internal/fallback"
	"teleop/internal/runner"
	"teleop/internal/tools"
)

const step = "mesh"

// Locator finds tools by logical name.
type Locator interface {
	Find(ctx context.Context, name string) (tools.Resolved, error)
}

// Client runs mesh client commands against the located CLI.
type Client struct {
	runner  runner.Runner
	locator Locator
	quitCmd []string
	logger  *slog.Logger
}

// New returns a mesh client. quitCmd is the platform command that closes the
// client's GUI companion; empty disables QuitGUI.
func New(r runner.Runner, loc Locator, quitCmd []string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{runner: r, locator: loc, quitCmd: quitCmd, logger: logger}
}

// Version locates the CLI and returns the probe result.
func (c *Client) Version(ctx context.Context) (tools.Resolved, error) {
	res, err := c.locator.Find(ctx, tools.Mesh)
	if err != nil {
		return tools.Resolved{}, &runner.OperationError{Step: step, Err: fmt.Errorf("tailscale CLI not found: %w", err)}
	}
	return res, nil
}

// Status returns the client's machine-readable status document.
func (c *Client) Status(ctx context.Context) (string, error) {
	cli, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return c.output(ctx, runner.Command{Program: cli.Path, Args: []string{"status", "--json"}})
}

// Netcheck returns the network diagnostics document. Older clients only know
// --format=json, so that is tried when --json fails.
func (c *Client) Netcheck(ctx context.Context) (string, error) {
	cli, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	var attempts []fallback.Strategy[string]
	for _, flag := range []string{"--json", "--format=json"} {
		flag := flag
		attempts = append(attempts, func(ctx context.Context) (string, error) {
			return c.output(ctx, runner.Command{Program: cli.Path, Args: []string{"netcheck", flag}})
		})
	}
	return fallback.First(ctx, attempts...)
}

// Up joins the mesh with a pre-authorised key. reset clears settings that a
// previous up left behind.
func (c *Client) Up(ctx context.Context, authKey string, reset bool) (string, error) {
	if strings.TrimSpace(authKey) == "" {
		return "", &runner.OperationError{Step: step, Err: errors.New("auth key is required")}
	}
	cli, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	args := []string{"up"}
	if reset {
		args = append(args, "--reset")
	}
	args = append(args, "--authkey", authKey)

	cmd := runner.Command{Program: cli.Path, Args: args, Sensitive: []string{authKey}}
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	out := res.Combined()
	if !res.Success {
		return "", runner.Failed(step+" up", res)
	}
	c.logger.Info("mesh up", "cmd", cmd.String())
	return out, nil
}

// QuitGUI closes the GUI companion. The platform command exits nonzero when
// the companion is not running, which is not treated as a failure.
func (c *Client) QuitGUI(ctx context.Context) (string, error) {
	if len(c.quitCmd) == 0 {
		return "", &runner.OperationError{Step: step, Err: errors.New("quit-gui is not supported on this platform")}
	}
	res, err := c.runner.Run(ctx, runner.Command{Program: c.quitCmd[0], Args: c.quitCmd[1:]})
	if err != nil {
		return "", err
	}
	return res.Combined(), nil
}

func (c *Client) output(ctx context.Context, cmd runner.Command) (string, error) {
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", runner.Failed(step+" "+cmd.Args[0], res)
	}
	return res.Stdout, nil
}

// Summary is the part of the status document teleop shows to operators.
type Summary struct {
	BackendState string   `json:"BackendState"`
	HostName     string   `json:"HostName"`
	DNSName      string   `json:"DNSName"`
	Addresses    []string `json:"TailscaleIPs"`
	Online       bool     `json:"Online"`
	Peers        int      `json:"Peers"`
}

type statusDoc struct {
	BackendState string `json:"BackendState"`
	Self         struct {
		HostName     string   `json:"HostName"`
		DNSName      string   `json:"DNSName"`
		TailscaleIPs []string `json:"TailscaleIPs"`
		Online       bool     `json:"Online"`
	} `json:"Self"`
	Peer map[string]json.RawMessage `json:"Peer"`
}

// ParseStatus extracts a Summary from a status document.
func ParseStatus(doc string) (Summary, error) {
	var st statusDoc
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		return Summary{}, fmt.Errorf("parse mesh status: %w", err)
	}
	return Summary{
		BackendState: st.BackendState,
		HostName:     st.Self.HostName,
		DNSName:      st.Self.DNSName,
		Addresses:    st.Self.TailscaleIPs,
		Online:       st.Self.Online,
		Peers:        len(st.Peer),
	}, nil
}
