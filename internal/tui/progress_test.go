package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"teleop/internal/bootstrap"
	"teleop/internal/install"
)

func stepModel() ProgressModel {
	return NewProgressModel("bootstrap offline", StepColumns)
}

func apply(t *testing.T, m ProgressModel, msgs ...tea.Msg) ProgressModel {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(ProgressModel)
	}
	return m
}

func TestRowsMsgAddsPendingRows(t *testing.T) {
	m := apply(t, stepModel(), RowsMsg{Keys: []string{install.StepMesh, install.StepMedia}})

	if len(m.rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(m.rows))
	}
	if m.rows[0].Fields[0] != install.StepMesh || m.rows[0].Fields[1] != "pending" {
		t.Fatalf("row 0 = %v", m.rows[0].Fields)
	}

	m = apply(t, m, RowsMsg{Keys: []string{install.StepMesh}})
	if len(m.rows) != 2 {
		t.Fatalf("duplicate key added a row: %d rows", len(m.rows))
	}
}

func TestRowUpdateMsg(t *testing.T) {
	m := apply(t, stepModel(),
		RowsMsg{Keys: []string{install.StepMesh, install.StepVenv}},
		RowUpdateMsg{Key: install.StepMesh, Fields: map[string]string{"STATUS": "installed", "DETAIL": "Tailscale.pkg"}},
	)

	if m.rows[0].Fields[1] != "installed" {
		t.Errorf("STATUS = %q", m.rows[0].Fields[1])
	}
	if m.rows[0].Fields[3] != "Tailscale.pkg" {
		t.Errorf("DETAIL = %q", m.rows[0].Fields[3])
	}
	if m.rows[1].Fields[1] != "pending" {
		t.Errorf("venv row changed: %v", m.rows[1].Fields)
	}
}

func TestRowUpdateUnknownKey(t *testing.T) {
	m := apply(t, stepModel(),
		RowsMsg{Keys: []string{install.StepVenv}},
		RowUpdateMsg{Key: "nope", Fields: map[string]string{"STATUS": "failed"}},
	)
	if m.rows[0].Fields[1] != "pending" {
		t.Errorf("STATUS changed to %q", m.rows[0].Fields[1])
	}
}

func TestStepReporter(t *testing.T) {
	var msgs []tea.Msg
	r := NewStepReporter(func(msg tea.Msg) { msgs = append(msgs, msg) })

	r.RunStarted("run-1", bootstrap.ModeOffline, []string{install.StepMesh, install.StepMessaging})
	r.StepStarted(install.StepMesh)
	r.StepFinished(install.Outcome{Step: install.StepMesh, Status: install.StatusFailed, Err: errors.New("installer exited 1")}, 1500*time.Millisecond)
	r.StepFinished(install.Outcome{Step: install.StepMessaging, Status: install.StatusSkipped}, time.Millisecond)
	r.RunFinished(bootstrap.Report{})

	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	m := apply(t, stepModel(), msgs...)

	mesh := m.rows[0].Fields
	if mesh[1] != "failed" || mesh[2] != "1.5s" || mesh[3] != "installer exited 1" {
		t.Fatalf("mesh row = %v", mesh)
	}
	if wheel := m.rows[1].Fields; wheel[3] != "-" {
		t.Fatalf("wheel detail = %q, want -", wheel[3])
	}
}

func TestWorkDoneMsg(t *testing.T) {
	updated, cmd := stepModel().Update(WorkDoneMsg{})
	m := updated.(ProgressModel)
	if !m.Done() {
		t.Error("expected Done() after WorkDoneMsg")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestErrorMsg(t *testing.T) {
	updated, cmd := stepModel().Update(ErrorMsg{Err: tea.ErrProgramKilled})
	m := updated.(ProgressModel)
	if !m.Done() || m.Err() == nil {
		t.Fatalf("done=%v err=%v", m.Done(), m.Err())
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
	if !strings.HasPrefix(m.View(), "Error:") {
		t.Errorf("view = %q", m.View())
	}
}

func TestView(t *testing.T) {
	m := stepModel()
	m.AddRow(install.StepMesh, []string{install.StepMesh, "present", "12ms", "tailscale 1.76.1"})
	m.AddRow(install.StepMedia, []string{install.StepMedia, "pending"})

	view := m.View()
	for _, want := range []string{"bootstrap offline", "STEP", "STATUS", "DETAIL", install.StepMesh, "present", "tailscale 1.76.1", "pending", "Installing 1/2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewHidesFooterWhenDone(t *testing.T) {
	m := stepModel()
	m.AddRow(install.StepVenv, []string{install.StepVenv, "installed"})
	m = apply(t, m, WorkDoneMsg{})
	if strings.Contains(m.View(), "Installing") {
		t.Error("footer shown after done")
	}
}

func TestProgressCountsIgnoresRunning(t *testing.T) {
	m := stepModel()
	m.AddRow("a", []string{"a", "pending"})
	m.AddRow("b", []string{"b", "running"})
	m.AddRow("c", []string{"c", "skipped"})

	processed, total := m.progressCounts()
	if processed != 1 || total != 3 {
		t.Fatalf("progress = %d/%d, want 1/3", processed, total)
	}
}

func TestSpinnerStopsAfterDone(t *testing.T) {
	m := apply(t, stepModel(), WorkDoneMsg{})
	if _, cmd := m.Update(spinner.TickMsg{}); cmd != nil {
		t.Error("spinner rescheduled after done")
	}
}

func TestViewTruncatesLongDetail(t *testing.T) {
	m := stepModel()
	long := strings.Repeat("x", 80)
	m.AddRow(install.StepMedia, []string{install.StepMedia, "failed", "2s", long})
	view := m.View()
	if strings.Contains(view, long) {
		t.Fatal("detail was not truncated")
	}
	if !strings.Contains(view, strings.Repeat("x", 45)+"...") {
		t.Fatalf("view = %q", view)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyRunes, Runes: []rune("q")}} {
		updated, cmd := stepModel().Update(key)
		if !updated.(ProgressModel).Done() || cmd == nil {
			t.Errorf("%s did not quit", key)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"package not bundled", 10, "package..."},
		{"abcd", 3, "abc"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.input, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestShortDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{42 * time.Second, "42s"},
		{1234 * time.Millisecond, "1.2s"},
		{125 * time.Second, "2m5s"},
	}
	for _, tt := range tests {
		if got := shortDuration(tt.d); got != tt.want {
			t.Errorf("shortDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	if NonEmptyOrDash("  ") != "-" || NonEmptyOrDash(" x ") != "x" {
		t.Error("NonEmptyOrDash mismatch")
	}
}
