package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"teleop/internal/bootstrap"
	"teleop/internal/install"
)

// StepColumns is the table layout used for bootstrap runs.
var StepColumns = []Column{
	{Header: "STEP", Width: 18},
	{Header: "STATUS", Width: 9},
	{Header: "TIME", Width: 7},
	{Header: "DETAIL", Width: 48},
}

// StepReporter turns orchestrator events into table updates.
type StepReporter struct {
	bootstrap.NopObserver
	send func(tea.Msg)
}

// NewStepReporter returns a reporter that delivers messages through send.
func NewStepReporter(send func(tea.Msg)) *StepReporter {
	return &StepReporter{send: send}
}

func (r *StepReporter) RunStarted(_ string, _ bootstrap.Mode, steps []string) {
	r.send(RowsMsg{Keys: steps})
}

func (r *StepReporter) StepStarted(step string) {
	r.send(RowUpdateMsg{Key: step, Fields: map[string]string{"STATUS": "running"}})
}

func (r *StepReporter) StepFinished(out install.Outcome, elapsed time.Duration) {
	detail := out.Artifact
	if out.Err != nil {
		detail = out.Err.Error()
	}
	r.send(RowUpdateMsg{Key: out.Step, Fields: map[string]string{
		"STATUS": string(out.Status),
		"TIME":   shortDuration(elapsed),
		"DETAIL": NonEmptyOrDash(detail),
	}})
}

// shortDuration keeps millisecond precision below one second and tenths of a
// second above it.
func shortDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
