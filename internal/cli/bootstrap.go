package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"teleop/internal/bootstrap"
	"teleop/internal/tui"
)

var (
	bootstrapOffline bool
	bootstrapReset   bool
)

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Install every dependency, from the network or the bundled resources",
		Long: `Install every dependency this host needs.

Without --offline the mesh client, media toolkit and messaging binding are
installed from the network; a failing step never stops later ones.

With --offline the bundled resources are used and the run happens once per
host: a marker in the support directory makes later runs report
already_bootstrapped. --reset removes the marker first.`,
		Args: cobra.NoArgs,
		RunE: runBootstrap,
	}
	cmd.Flags().BoolVar(&bootstrapOffline, "offline", false, "Install from the bundled resources")
	cmd.Flags().BoolVar(&bootstrapReset, "reset", false, "Forget a previous offline bootstrap before running")
	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	state := bootstrap.NewState(a.paths)
	if bootstrapReset {
		if err := state.Reset(); err != nil {
			return err
		}
		a.logger.Info("offline bootstrap marker removed")
	}

	// A host that already finished the offline run is answered before
	// history, metrics or the support dir are touched.
	if bootstrapOffline {
		done, err := state.Done()
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		if done {
			report := bootstrap.Report{Mode: bootstrap.ModeOffline, AlreadyDone: true}
			return printReport(cmd, a, tui.DetectMode(cmd.OutOrStdout(), noProgress, outputJSON), report)
		}
	}

	if err := a.paths.EnsureSupport(); err != nil {
		return err
	}

	title := "bootstrap networked"
	run := func(ctx context.Context, o *bootstrap.Orchestrator) (bootstrap.Report, error) {
		return o.Networked(ctx)
	}
	if bootstrapOffline {
		title = "bootstrap offline"
		run = func(ctx context.Context, o *bootstrap.Orchestrator) (bootstrap.Report, error) {
			return o.Offline(ctx)
		}
	}

	report, err := runOrchestrated(cmd, a, title, run)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if !report.OK() {
		return errCompletedWithErrors
	}
	return nil
}
