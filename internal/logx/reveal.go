package logx

import (
	"context"
	"fmt"

	"teleop/internal/runner"
)

// RevealCommand returns the file-browser invocation for dir on goos.
func RevealCommand(goos, dir string) runner.Command {
	switch goos {
	case "darwin":
		return runner.Command{Program: "open", Args: []string{dir}}
	case "windows":
		return runner.Command{Program: "explorer", Args: []string{dir}}
	default:
		return runner.Command{Program: "xdg-open", Args: []string{dir}}
	}
}

// Reveal opens dir in the host file browser. Only a launch failure is an
// error; explorer exits nonzero even when it opens the window.
func Reveal(ctx context.Context, r runner.Runner, goos, dir string) error {
	if _, err := r.Run(ctx, RevealCommand(goos, dir)); err != nil {
		return fmt.Errorf("reveal %s: %w", dir, err)
	}
	return nil
}
