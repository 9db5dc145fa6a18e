package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	supportDir string
	logLevel   string
	outputJSON bool
	noProgress bool
)

// Execute runs the root cobra command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "teleop",
		Short:         "Provision and check the teleop host dependencies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default <support dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&supportDir, "support", "", "Override the per-user support directory")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable the interactive progress display")

	cmd.AddCommand(newSecretCmd())
	cmd.AddCommand(newPreflightCmd())
	cmd.AddCommand(newMeshCmd())
	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newBootstrapCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}
