// Package runner executes external programs and captures their output.
// A program that cannot be started yields a *LaunchError; a program that runs
// and exits nonzero yields a Result with Success=false.
package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// Command describes a single program invocation.
type Command struct {
	Program string
	Args    []string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
	// Timeout bounds the invocation when positive.
	Timeout time.Duration
	// Sensitive lists argument values masked by String.
	Sensitive []string
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	args := c.Args
	if len(c.Sensitive) > 0 {
		args = make([]string, len(c.Args))
		for i, a := range c.Args {
			args[i] = a
			for _, s := range c.Sensitive {
				if s != "" {
					args[i] = strings.ReplaceAll(args[i], s, "***")
				}
			}
		}
	}
	return c.Program + " " + strings.Join(args, " ")
}

// Result holds the captured output of a finished process.
type Result struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() string {
	return r.Stdout + r.Stderr
}

// Runner runs commands. Implementations never return an error for a nonzero
// exit status.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// pipeGrace bounds how long Run waits for output pipes to close after a
// timed-out process is killed.
const pipeGrace = time.Second

// Exec runs commands as local processes.
type Exec struct {
	logger *slog.Logger
}

// New returns a process runner. A nil logger disables debug logging.
func New(logger *slog.Logger) *Exec {
	return &Exec{logger: logger}
}

// Run starts cmd and waits for it to exit.
func (e *Exec) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Program == "" {
		return Result{}, &LaunchError{Program: "(empty)", Err: errors.New("empty program")}
	}
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	proc := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	if cmd.Timeout > 0 {
		// Children of a killed wrapper can hold the output pipes open.
		proc.WaitDelay = pipeGrace
	}
	if len(cmd.Env) > 0 {
		proc.Env = append(proc.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	started := time.Now()
	runErr := proc.Run()

	res := Result{
		Success: runErr == nil,
		Stdout:  Decode(stdout.Bytes()),
		Stderr:  Decode(stderr.Bytes()),
	}
	switch {
	case runErr == nil:
	case errors.Is(runErr, exec.ErrWaitDelay):
		res.ExitCode = proc.ProcessState.ExitCode()
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			e.debug("launch failed", "cmd", cmd.String(), "err", runErr)
			return Result{}, &LaunchError{Program: cmd.Program, Err: runErr}
		}
		res.ExitCode = exitErr.ExitCode()
	}
	e.debug("command finished", "cmd", cmd.String(), "exit", res.ExitCode, "elapsed", time.Since(started))
	return res, nil
}

func (e *Exec) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

// Decode converts tool output to a string, replacing invalid UTF-8 with U+FFFD.
func Decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}
