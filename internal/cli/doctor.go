package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"teleop/internal/config"
	"teleop/internal/paths"
	"teleop/internal/preflight"
)

func newPreflightCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "preflight",
		Aliases: []string{"doctor"},
		Short:   "Check that the media toolkit, messaging binding and mesh client work",
		Args:    cobra.NoArgs,
		RunE:    runPreflight,
	}
}

func runPreflight(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	python := ""
	if ok, _ := paths.FileExists(a.paths.VenvPython()); ok {
		python = a.paths.VenvPython()
	}
	checker := preflight.New(a.runner, a.locator, python, a.cfg.Messaging.ImportCheck)

	checks := checker.Run(commandContext(cmd))
	checks = append(checks, checkConfig(a.cfg))
	if err := writeDoctorResult(cmd, a.paths.SupportDir, checks); err != nil {
		return err
	}
	for _, c := range checks {
		if c.Status == preflight.StatusError {
			return fmt.Errorf("preflight failed: %s", c.Name)
		}
	}
	return nil
}

func checkConfig(cfg config.Config) preflight.Check {
	var warnings int
	for _, v := range cfg.Validate() {
		if v.Level == "warning" {
			warnings++
		}
	}
	summary := fmt.Sprintf("secrets=%s mesh=%s", cfg.Secrets.Backend, cfg.Mesh.InstallMethod)
	if warnings > 0 {
		return preflight.Check{Name: "Config", Status: preflight.StatusWarn, Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return preflight.Check{Name: "Config", Status: preflight.StatusOK, Summary: summary}
}

func writeDoctorResult(cmd *cobra.Command, supportDir string, checks []preflight.Check) error {
	if outputJSON {
		return writeJSON(cmd, checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("HOST HEALTH:")+" "+supportDir)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case preflight.StatusOK:
			statusStr = green.Render("OK")
		case preflight.StatusWarn:
			statusStr = yellow.Render("WARN")
		case preflight.StatusError:
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}
