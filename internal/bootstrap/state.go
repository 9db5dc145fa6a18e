package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"teleop/internal/paths"
)

// ErrMarkerNotFile is returned by Done when the marker path holds something
// other than a regular file.
var ErrMarkerNotFile = errors.New("bootstrap marker is not a regular file")

// State is the persisted handle for the offline bootstrap guard. The marker
// file's presence means "offline bootstrap was attempted to completion";
// its contents are informational only.
type State struct {
	dir    string
	marker string
}

// NewState returns the state handle rooted at the host's support directory.
func NewState(p paths.HostPaths) *State {
	return &State{dir: p.SupportDir, marker: p.MarkerFile}
}

// MarkerPath returns the location of the marker file.
func (s *State) MarkerPath() string { return s.marker }

// Done reports whether the marker exists. Anything other than a regular file
// at the marker path is an error, since MarkDone could never replace it.
func (s *State) Done() (bool, error) {
	info, err := os.Lstat(s.marker)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("check bootstrap marker: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s is a %s", ErrMarkerNotFile, s.marker, kind(info.Mode()))
	}
	return true, nil
}

func kind(m os.FileMode) string {
	switch {
	case m.IsDir():
		return "directory"
	case m&os.ModeSymlink != 0:
		return "symlink"
	default:
		return "special file"
	}
}

// MarkDone writes the marker through a temp file and rename so a crash never
// leaves a partial marker behind.
func (s *State) MarkDone(runID string, at time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("prepare support dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "bootstrap-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp marker: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := fmt.Fprintf(tmp, "ok %s %s\n", runID, at.UTC().Format(time.RFC3339)); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp marker: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.marker); err != nil {
		return fmt.Errorf("write bootstrap marker: %w", err)
	}
	return nil
}

// Reset removes the marker so the next offline bootstrap runs again. A
// missing marker is not an error.
func (s *State) Reset() error {
	if err := os.Remove(s.marker); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove bootstrap marker: %w", err)
	}
	return nil
}

func (s *State) ensureDir() error {
	if err := os.MkdirAll(filepath.Clean(s.dir), 0o755); err != nil {
		return fmt.Errorf("prepare support dir: %w", err)
	}
	return nil
}
