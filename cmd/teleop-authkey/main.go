// Command teleop-authkey serves single-use mesh pre-auth keys to verified
// operators.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"teleop/internal/authkey"
	"teleop/internal/logx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr     string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "teleop-authkey",
		Short: "Mint single-use mesh auth keys for verified operators",
		Long: `Serves POST ` + authkey.Route + `.

Configuration comes from the environment:
  ` + authkey.EnvClientID + `, ` + authkey.EnvClientSecret + `, ` + authkey.EnvTailnet + `
  ` + authkey.EnvOperatorTokens + ` (comma separated bearer tokens)
  ` + authkey.EnvAPIBase + ` (optional)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(addr, logLevel)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	return cmd
}

func serve(addr, logLevel string) error {
	logger := logx.NewLogger(os.Stderr, logx.ParseLevel(logLevel))
	cfg := authkey.ConfigFromEnv(os.Getenv)
	if !cfg.Configured() {
		logger.Warn("admin API credentials missing; requests will fail with 500")
	}
	if len(cfg.OperatorTokens) == 0 {
		logger.Warn("no operator tokens configured; every request will be rejected")
	}

	minter := authkey.NewTailnetMinter(cfg.ClientID, cfg.ClientSecret, cfg.Tailnet, cfg.APIBase,
		authkey.DefaultKeyOptions(), &http.Client{Timeout: 30 * time.Second})
	srv := &http.Server{
		Addr:              addr,
		Handler:           authkey.NewServer(cfg.Configured(), authkey.Allowlist(cfg.OperatorTokens), minter, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}
