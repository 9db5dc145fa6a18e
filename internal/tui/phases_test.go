package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedPhaseLine(w *bytes.Buffer, phases ...string) (*PhaseLine, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := NewPhaseLine(w, phases...)
	p.now = func() time.Time { return now }
	p.every = time.Hour
	return p, &now
}

func TestPhaseLineRendersCurrentPhase(t *testing.T) {
	var buf bytes.Buffer
	p, now := fixedPhaseLine(&buf, "fetching auth key", "joining mesh")
	if p.line() != "" {
		t.Fatalf("line before Next = %q", p.line())
	}

	p.Next()
	*now = now.Add(1500 * time.Millisecond)
	if got := p.line(); !strings.HasSuffix(got, " [1/2] fetching auth key (1.5s)") {
		t.Fatalf("line = %q", got)
	}

	p.Next()
	if got := p.line(); !strings.HasSuffix(got, " [2/2] joining mesh (0s)") {
		t.Fatalf("line = %q", got)
	}
	p.Next()
	if p.current != 1 {
		t.Fatalf("Next past the last phase moved to %d", p.current)
	}
	p.Finish(nil)
	if buf.String() != "\r\033[K" {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestPhaseLineSinglePhaseHasNoCounter(t *testing.T) {
	var buf bytes.Buffer
	p, _ := fixedPhaseLine(&buf, "joining mesh")
	p.Next()
	defer p.Finish(nil)
	if got := p.line(); strings.Contains(got, "[1/1]") || !strings.HasSuffix(got, " joining mesh (0s)") {
		t.Fatalf("line = %q", got)
	}
}

func TestPhaseLineFinishReportsFailedPhase(t *testing.T) {
	var buf bytes.Buffer
	p, now := fixedPhaseLine(&buf, "fetching auth key", "joining mesh")
	p.Next()
	*now = now.Add(2 * time.Second)
	p.Finish(errors.New("upstream 502"))
	p.Finish(errors.New("again"))

	if got := buf.String(); got != "\r\033[Kfetching auth key failed after 2s\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestPhaseLineFinishWithoutPhaseWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	p, _ := fixedPhaseLine(&buf, "joining mesh")
	p.Finish(errors.New("no key"))
	if buf.Len() != 0 {
		t.Fatalf("output = %q", buf.String())
	}
}
