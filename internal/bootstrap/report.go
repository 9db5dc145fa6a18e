package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"teleop/internal/install"
	"teleop/internal/runner"
)

// AlreadyBootstrapped is the report text of an offline run that found the
// marker.
const AlreadyBootstrapped = "already_bootstrapped"

// Mode names the entry point that produced a report.
type Mode string

const (
	ModeNetworked Mode = "networked"
	ModeOffline   Mode = "offline"
	ModeSingle    Mode = "single"
	ModeManual    Mode = "manual"
)

// Report aggregates the outcomes of one run.
type Report struct {
	RunID       string
	Mode        Mode
	AlreadyDone bool
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcomes    []install.Outcome
}

// OK reports whether every step ended without error.
func (r Report) OK() bool {
	for _, o := range r.Outcomes {
		if !o.OK() {
			return false
		}
	}
	return true
}

// Failed returns the outcomes that ended in error.
func (r Report) Failed() []install.Outcome {
	var out []install.Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the errors of failed steps, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// Elapsed returns the wall time of the run.
func (r Report) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// String renders one header line per step followed by the step's log.
func (r Report) String() string {
	if r.AlreadyDone {
		return AlreadyBootstrapped
	}
	var b strings.Builder
	for _, o := range r.Outcomes {
		b.WriteString(Headline(o))
		b.WriteByte('\n')
		if o.Log != "" {
			b.WriteString(o.Log)
			if !strings.HasSuffix(o.Log, "\n") {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// Headline is the one-line summary of an outcome: "<step> ok",
// "<step> ok (present)", "<step> skipped" or "<step> err: <detail>".
func Headline(o install.Outcome) string {
	if !o.OK() {
		return fmt.Sprintf("%s err: %s", o.Step, detail(o.Err))
	}
	switch o.Status {
	case install.StatusPresent:
		return o.Step + " ok (present)"
	case install.StatusSkipped:
		return o.Step + " skipped"
	default:
		return o.Step + " ok"
	}
}

// detail drops captured output from operation errors; the step log already
// carries it.
func detail(err error) string {
	if err == nil {
		return "failed"
	}
	var oe *runner.OperationError
	if errors.As(err, &oe) && oe.Err != nil {
		return oe.Err.Error()
	}
	return err.Error()
}
