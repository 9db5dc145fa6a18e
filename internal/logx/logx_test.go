package logx

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"teleop/internal/runner/runnertest"
)

func fixedSink(path string, at time.Time) *Sink {
	s := NewSink(path)
	s.now = func() time.Time { return at }
	return s
}

func TestSinkAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "new_user_debug.log")
	s := fixedSink(path, time.Date(2026, 10, 17, 9, 5, 3, 0, time.Local))

	if err := s.Append("step one"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append("step two\n"); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "[2026-10-17 09:05:03] step one\n[2026-10-17 09:05:03] step two\n"
	if string(data) != want {
		t.Fatalf("log = %q, want %q", data, want)
	}
}

func TestSinkAppendKeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	if err := os.WriteFile(path, []byte("earlier\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := fixedSink(path, time.Now())
	if err := s.Append("later"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "earlier\n[") {
		t.Fatalf("existing content lost: %q", data)
	}
}

func TestSinkExport(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)
	s := fixedSink(filepath.Join(dir, "logs", "new_user_debug.log"), at)
	if err := s.Append("hello"); err != nil {
		t.Fatal(err)
	}

	dest, err := s.Export(filepath.Join(dir, "Desktop"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(dest) != "new_user_debug_20260102-030405.log" {
		t.Fatalf("dest = %s", dest)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "[2026-01-02 03:04:05] hello\n" {
		t.Fatalf("export = %q", data)
	}
}

func TestSinkExportEmpty(t *testing.T) {
	dir := t.TempDir()
	s := fixedSink(filepath.Join(dir, "missing.log"), time.Now())
	dest, err := s.Export(dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "(empty)" {
		t.Fatalf("export = %q, want (empty)", data)
	}
}

func TestSinkWriterSplitsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	s := fixedSink(path, time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local))
	if _, err := s.Writer().Write([]byte("a\nb\n")); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "[2026-01-01 00:00:00] ") != 2 {
		t.Fatalf("log = %q", data)
	}
}

func TestNewLoggerRenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, ParseLevel("debug"))
	logger.Debug("probe failed", "error", "boom")
	if !strings.Contains(buf.String(), "err=boom") {
		t.Fatalf("output %q missing err=boom", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, ParseLevel("warn")).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
}

func TestParseLevelFallback(t *testing.T) {
	if got := ParseLevel("chatty"); got.String() != "INFO" {
		t.Fatalf("ParseLevel = %v, want INFO", got)
	}
}

func TestRevealCommand(t *testing.T) {
	cases := map[string]string{
		"darwin":  "open /x",
		"linux":   "xdg-open /x",
		"windows": "explorer /x",
	}
	for goos, want := range cases {
		if got := RevealCommand(goos, "/x").String(); got != want {
			t.Errorf("%s: got %q, want %q", goos, got, want)
		}
	}
}

func TestReveal(t *testing.T) {
	fake := runnertest.New()
	fake.Fail("xdg-open", 4, "no handler")
	if err := Reveal(context.Background(), fake, "linux", "/logs"); err != nil {
		t.Fatalf("nonzero exit should not fail: %v", err)
	}
	if err := Reveal(context.Background(), fake, "darwin", "/logs"); err == nil {
		t.Fatal("expected launch error for missing open")
	}
}
