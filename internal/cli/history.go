package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"teleop/internal/history"
	"teleop/internal/tui"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recent bootstrap runs, or show one run's steps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	store, err := history.Open(a.paths.StateDB)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := commandContext(cmd)

	if len(args) == 1 {
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		if outputJSON {
			return writeJSON(cmd, run)
		}
		printRun(cmd, run)
		return nil
	}

	runs, err := store.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd, runs)
	}
	if len(runs) == 0 {
		cmd.Println("(no runs recorded)")
		return nil
	}
	cmd.Printf("%-36s %-10s %-8s %s\n", "Run", "Mode", "Result", "Started")
	for _, r := range runs {
		cmd.Printf("%-36s %-10s %-8s %s\n", tui.NonEmptyOrDash(r.RunID), r.Mode, runResult(r), r.StartedAt)
	}
	return nil
}

func runResult(r history.Run) string {
	switch {
	case r.AlreadyDone:
		return "done"
	case r.OK:
		return "ok"
	default:
		return "errors"
	}
}

func printRun(cmd *cobra.Command, r history.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s (%s) %s\n", r.RunID, r.Mode, runResult(r))
	fmt.Fprintf(out, "started %s finished %s\n", r.StartedAt, tui.NonEmptyOrDash(r.FinishedAt))
	for _, s := range r.Steps {
		fmt.Fprintf(out, "  %d %-18s %-9s %s\n", s.Seq, s.Step, s.Status, s.Detail)
		if s.Digest != "" {
			fmt.Fprintf(out, "    blake3 %s %s\n", s.Digest, s.Artifact)
		}
	}
}
