package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"teleop/internal/bootstrap"
	"teleop/internal/tui"
)

// errCompletedWithErrors is returned by multi-step commands after the report
// has been printed so the exit status reflects failed steps.
var errCompletedWithErrors = errors.New("bootstrap completed with errors")

type stepView struct {
	Step     string `json:"step"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Artifact string `json:"artifact,omitempty"`
	Digest   string `json:"digest,omitempty"`
	Log      string `json:"log,omitempty"`
}

type reportView struct {
	RunID       string     `json:"runId,omitempty"`
	Mode        string     `json:"mode"`
	AlreadyDone bool       `json:"alreadyDone"`
	OK          bool       `json:"ok"`
	Elapsed     string     `json:"elapsed,omitempty"`
	Steps       []stepView `json:"steps"`
}

func newReportView(r bootstrap.Report) reportView {
	v := reportView{
		RunID:       r.RunID,
		Mode:        string(r.Mode),
		AlreadyDone: r.AlreadyDone,
		OK:          r.OK(),
		Steps:       []stepView{},
	}
	if !r.StartedAt.IsZero() && !r.FinishedAt.IsZero() {
		v.Elapsed = r.Elapsed().Round(time.Millisecond).String()
	}
	for _, o := range r.Outcomes {
		sv := stepView{
			Step:     o.Step,
			Status:   string(o.Status),
			Artifact: o.Artifact,
			Digest:   o.Digest,
			Log:      o.Log,
		}
		if o.Err != nil {
			sv.Error = o.Err.Error()
		}
		v.Steps = append(v.Steps, sv)
	}
	return v
}

type runFunc func(ctx context.Context, o *bootstrap.Orchestrator) (bootstrap.Report, error)

// runOrchestrated executes run with the progress display chosen for the
// terminal, prints the report, and returns run's error.
func runOrchestrated(cmd *cobra.Command, a *app, title string, run runFunc) (bootstrap.Report, error) {
	ctx := commandContext(cmd)
	mode := tui.DetectMode(cmd.OutOrStdout(), noProgress, outputJSON)

	var (
		report bootstrap.Report
		runErr error
	)
	if mode == tui.ModeTUI {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		model := tui.NewProgressModel(title, tui.StepColumns)
		err := tui.RunWithWork(cmd.OutOrStdout(), model, cancel, func(send func(tea.Msg)) {
			o, sess := a.orchestrator(tui.NewStepReporter(send))
			defer sess.close()
			report, runErr = run(ctx, o)
			a.flushMetrics(sess)
		})
		if err != nil {
			return report, err
		}
	} else {
		o, sess := a.orchestrator()
		defer sess.close()
		report, runErr = run(ctx, o)
		a.flushMetrics(sess)
	}

	if runErr != nil && report.RunID == "" && !report.AlreadyDone {
		return report, runErr
	}
	if err := printReport(cmd, a, mode, report); err != nil {
		return report, err
	}
	return report, runErr
}

// printReport renders a finished report for the given output mode. The
// progress table already showed each step, so the TUI mode only adds failure
// logs and the log location.
func printReport(cmd *cobra.Command, a *app, mode tui.OutputMode, report bootstrap.Report) error {
	switch {
	case mode == tui.ModeJSON:
		return writeJSON(cmd, newReportView(report))
	case mode == tui.ModeTUI && !report.AlreadyDone:
		for _, o := range report.Failed() {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n%s", bootstrap.Headline(o), o.Log)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nlog: %s\n", a.sink.Path())
	default:
		printText(cmd, report.String())
	}
	return nil
}
