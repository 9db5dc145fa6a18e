package runner

import (
	"errors"
	"fmt"
	"strings"
)

// LaunchError reports that a program could not be started at all (missing
// binary, permission denied, bad environment).
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// OperationError reports that a step ran but did not succeed, or that one of
// its preconditions was unmet. Output carries the captured stdout+stderr.
type OperationError struct {
	Step   string
	Output string
	Err    error
}

func (e *OperationError) Error() string {
	msg := e.Step
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *OperationError) Unwrap() error { return e.Err }

// Failed builds an OperationError from a finished but unsuccessful command.
func Failed(step string, res Result) *OperationError {
	return &OperationError{
		Step:   step,
		Output: res.Combined(),
		Err:    fmt.Errorf("exit status %d", res.ExitCode),
	}
}

// IsLaunch reports whether err is, or wraps, a *LaunchError.
func IsLaunch(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}

// IsOperation reports whether err is, or wraps, an *OperationError.
func IsOperation(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe)
}
