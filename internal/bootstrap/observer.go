package bootstrap

import (
	"time"

	"teleop/internal/install"
)

// Observer is notified as a run progresses. Calls happen on the goroutine
// running the orchestrator.
type Observer interface {
	RunStarted(runID string, mode Mode, steps []string)
	StepStarted(step string)
	StepFinished(out install.Outcome, elapsed time.Duration)
	RunFinished(report Report)
}

// NopObserver implements Observer with no-ops; embed it to observe a subset.
type NopObserver struct{}

func (NopObserver) RunStarted(string, Mode, []string)           {}
func (NopObserver) StepStarted(string)                          {}
func (NopObserver) StepFinished(install.Outcome, time.Duration) {}
func (NopObserver) RunFinished(Report)                          {}

type observers []Observer

func (obs observers) runStarted(id string, mode Mode, steps []string) {
	for _, o := range obs {
		o.RunStarted(id, mode, steps)
	}
}

func (obs observers) stepStarted(step string) {
	for _, o := range obs {
		o.StepStarted(step)
	}
}

func (obs observers) stepFinished(out install.Outcome, elapsed time.Duration) {
	for _, o := range obs {
		o.StepFinished(out, elapsed)
	}
}

func (obs observers) runFinished(r Report) {
	for _, o := range obs {
		o.RunFinished(r)
	}
}

// Appender is an append-only line sink.
type Appender interface {
	Append(line string) error
}

// Journal writes one line per run and per step outcome to an Appender.
// Write failures are dropped; the journal never fails a run.
type Journal struct {
	NopObserver
	sink Appender
}

// NewJournal returns a journal observer writing to sink.
func NewJournal(sink Appender) *Journal {
	return &Journal{sink: sink}
}

func (j *Journal) RunStarted(runID string, mode Mode, _ []string) {
	_ = j.sink.Append("bootstrap " + string(mode) + " started run=" + runID)
}

func (j *Journal) StepFinished(out install.Outcome, elapsed time.Duration) {
	_ = j.sink.Append(Headline(out) + " (" + elapsed.Round(time.Millisecond).String() + ")")
}

func (j *Journal) RunFinished(r Report) {
	result := "ok"
	if !r.OK() {
		result = "completed with errors"
	}
	_ = j.sink.Append("bootstrap " + string(r.Mode) + " " + result + " run=" + r.RunID)
}
