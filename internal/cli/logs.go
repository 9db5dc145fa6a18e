package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"teleop/internal/logx"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Locate, append to, reveal or export the debug log",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the logs directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSink(cmd, func(_ *app, s *logx.Sink) error {
				fmt.Fprintln(cmd.OutOrStdout(), s.Dir())
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "file",
		Short: "Print the debug log path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSink(cmd, func(_ *app, s *logx.Sink) error {
				fmt.Fprintln(cmd.OutOrStdout(), s.Path())
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "append MESSAGE...",
		Short: "Append a timestamped line to the debug log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSink(cmd, func(_ *app, s *logx.Sink) error {
				return s.Append(strings.Join(args, " "))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reveal",
		Short: "Open the logs directory in the file browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSink(cmd, func(a *app, s *logx.Sink) error {
				if err := a.paths.EnsureLogs(); err != nil {
					return err
				}
				return logx.Reveal(commandContext(cmd), a.runner, a.paths.GOOS, s.Dir())
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Copy the debug log to the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSink(cmd, func(a *app, s *logx.Sink) error {
				dest, err := s.Export(a.paths.ExportDir)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dest)
				return nil
			})
		},
	})
	return cmd
}

func withSink(cmd *cobra.Command, fn func(*app, *logx.Sink) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	return fn(a, a.sink)
}
