package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"teleop/internal/bootstrap"
	"teleop/internal/install"
)

var installOffline bool

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "install [media|messaging|mesh|all]",
		Short:     "Install one dependency, or all of them",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"media", "messaging", "mesh", "all"},
		RunE:      runInstall,
	}
	cmd.Flags().BoolVar(&installOffline, "offline", false, "Install from the bundled resources instead of the network")
	return cmd
}

func installerFor(target string, env install.Env, offline bool) (install.Installer, error) {
	switch target {
	case "media":
		if offline {
			return install.NewMediaBundled(env), nil
		}
		return install.NewMediaManager(env), nil
	case "messaging":
		if offline {
			return install.NewWheel(env), nil
		}
		return install.NewMessagingPip(env), nil
	case "mesh":
		if offline {
			return install.NewMeshBundled(env), nil
		}
		return install.NewMesh(env), nil
	default:
		return nil, fmt.Errorf("unknown install target: %s", target)
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	target := strings.ToLower(args[0])
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	if target == "all" {
		title := "install all"
		run := func(ctx context.Context, o *bootstrap.Orchestrator) (bootstrap.Report, error) {
			return o.Networked(ctx)
		}
		if installOffline {
			title = "install all (offline)"
			run = func(ctx context.Context, o *bootstrap.Orchestrator) (bootstrap.Report, error) {
				return o.Plan(ctx, bootstrap.OfflinePlan(a.env()))
			}
		}
		report, err := runOrchestrated(cmd, a, title, run)
		if err != nil {
			return err
		}
		if !report.OK() {
			return errCompletedWithErrors
		}
		return nil
	}

	inst, err := installerFor(target, a.env(), installOffline)
	if err != nil {
		return err
	}
	_, err = runOrchestrated(cmd, a, "install "+target, func(ctx context.Context, o *bootstrap.Orchestrator) (bootstrap.Report, error) {
		return o.Single(ctx, inst)
	})
	return err
}
