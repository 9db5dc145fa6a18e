package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"teleop/internal/tools"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the external tools teleop depends on",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Locate every known tool and report what was found",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	})
	return cmd
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	statuses := a.locator.Survey(commandContext(cmd), a.paths.GOOS)

	if outputJSON {
		return writeJSON(cmd, statuses)
	}
	printStatusTable(cmd, statuses)
	return nil
}

func printStatusTable(cmd *cobra.Command, statuses []tools.Status) {
	if len(statuses) == 0 {
		cmd.Println("(no tool statuses)")
		return
	}

	rows := make([]tools.Status, len(statuses))
	copy(rows, statuses)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Tool < rows[j].Tool
	})

	cmd.Printf("%-16s %-14s %-7s %s\n", "Tool", "Version", "OK", "Path")
	for _, st := range rows {
		ok := "no"
		if st.Satisfied {
			ok = "yes"
		}
		path := st.Path
		if path == "" {
			path = "(missing)"
		}
		version := st.Version
		if version == "" {
			version = "-"
		}
		cmd.Printf("%-16s %-14s %-7s %s\n", st.Tool, version, ok, path)
		if st.Error != "" {
			cmd.Printf("  error: %s\n", st.Error)
		}
		if !st.Available && len(st.Tried) > 0 {
			cmd.Printf("  tried: %s\n", strings.Join(st.Tried, ", "))
		}
		for _, note := range st.Notes {
			cmd.Printf("  hint: %s\n", note)
		}
	}
}
