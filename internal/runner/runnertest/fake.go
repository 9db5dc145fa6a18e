// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"teleop/internal/runner"
)

// Handler computes the outcome of a matched command.
type Handler func(cmd runner.Command) (runner.Result, error)

// Fake answers commands from scripted rules and records every call.
// Unmatched commands fail with a *runner.LaunchError wrapping exec.ErrNotFound.
type Fake struct {
	mu       sync.Mutex
	exact    map[string]Handler
	programs map[string]Handler
	calls    []runner.Command
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		exact:    map[string]Handler{},
		programs: map[string]Handler{},
	}
}

func key(program string, args []string) string {
	return program + "\x00" + strings.Join(args, "\x00")
}

// Respond scripts a fixed result for program invoked with exactly args.
func (f *Fake) Respond(res runner.Result, program string, args ...string) {
	f.Handle(func(runner.Command) (runner.Result, error) { return res, nil }, program, args...)
}

// Handle scripts a handler for program invoked with exactly args.
func (f *Fake) Handle(h Handler, program string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exact[key(program, args)] = h
}

// HandleProgram scripts a handler for any invocation of program that has no
// exact rule.
func (f *Fake) HandleProgram(program string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.programs[program] = h
}

// Succeed makes any invocation of program succeed with stdout.
func (f *Fake) Succeed(program, stdout string) {
	f.HandleProgram(program, func(runner.Command) (runner.Result, error) {
		return OK(stdout), nil
	})
}

// Fail makes any invocation of program exit with code and stderr.
func (f *Fake) Fail(program string, code int, stderr string) {
	f.HandleProgram(program, func(runner.Command) (runner.Result, error) {
		return runner.Result{ExitCode: code, Stderr: stderr}, nil
	})
}

// Forget drops every rule for program so later calls become launch errors.
func (f *Fake) Forget(program string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.programs, program)
	for k := range f.exact {
		if strings.HasPrefix(k, program+"\x00") {
			delete(f.exact, k)
		}
	}
}

// Run implements runner.Runner.
func (f *Fake) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	h, ok := f.exact[key(cmd.Program, cmd.Args)]
	if !ok {
		h, ok = f.programs[cmd.Program]
	}
	f.mu.Unlock()

	if !ok {
		return runner.Result{}, &runner.LaunchError{Program: cmd.Program, Err: exec.ErrNotFound}
	}
	return h(cmd)
}

// Calls returns a copy of the recorded commands.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runner.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Lines returns the recorded commands rendered with Command.String.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Called reports whether a command line starting with prefix was recorded.
func (f *Fake) Called(prefix string) bool {
	for _, line := range f.Lines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Reset clears the recorded calls but keeps the rules.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// OK builds a successful result.
func OK(stdout string) runner.Result {
	return runner.Result{Success: true, Stdout: stdout}
}
