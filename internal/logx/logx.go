// Package logx holds the user-visible debug log and the diagnostic logger.
package logx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Sink appends timestamped lines to a single log file. The file is opened in
// append mode for every write so other processes may append between lines.
type Sink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewSink returns a sink writing to path.
func NewSink(path string) *Sink {
	return &Sink{path: path, now: time.Now}
}

// Path returns the log file location.
func (s *Sink) Path() string { return s.path }

// Dir returns the directory holding the log file.
func (s *Sink) Dir() string { return filepath.Dir(s.path) }

// Append writes "[YYYY-MM-DD HH:MM:SS] line" followed by a newline.
func (s *Sink) Append(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure logs directory: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	entry := fmt.Sprintf("[%s] %s\n", s.now().Format("2006-01-02 15:04:05"), strings.TrimRight(line, "\n"))
	if _, err := io.WriteString(file, entry); err != nil {
		file.Close()
		return fmt.Errorf("write log file: %w", err)
	}
	return file.Close()
}

// Export copies the log into dir as new_user_debug_<YYYYmmdd-HHMMSS>.log and
// returns the copy's path. A missing log exports as "(empty)".
func (s *Sink) Export(dir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export directory: %w", err)
	}
	dest := filepath.Join(dir, fmt.Sprintf("new_user_debug_%s.log", s.now().Format("20060102-150405")))

	src, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(dest, []byte("(empty)"), 0o644); err != nil {
			return "", fmt.Errorf("write export: %w", err)
		}
		return dest, nil
	}
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("copy log: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	return dest, nil
}

// Writer adapts the sink to an io.Writer, one line per write.
func (s *Sink) Writer() io.Writer { return sinkWriter{s} }

type sinkWriter struct{ s *Sink }

func (w sinkWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if err := w.s.Append(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// ParseLevel parses a slog level name, falling back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger returns a text logger on w with the "error" key shortened to
// "err".
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}
