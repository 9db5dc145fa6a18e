package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"teleop/internal/authkey"
	"teleop/internal/mesh"
	"teleop/internal/tui"
)

var (
	meshAuthKey    string
	meshAuthKeyURL string
	meshReset      bool
)

func newMeshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mesh",
		Short: "Drive the mesh networking client",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Locate the mesh client and print its version",
		Args:  cobra.NoArgs,
		RunE:  runMeshVersion,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the mesh client status",
		Args:  cobra.NoArgs,
		RunE:  runMeshStatus,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "netcheck",
		Short: "Print the mesh network diagnostics document",
		Args:  cobra.NoArgs,
		RunE:  runMeshNetcheck,
	})

	up := &cobra.Command{
		Use:   "up",
		Short: "Join the mesh with a pre-authorised key",
		Args:  cobra.NoArgs,
		RunE:  runMeshUp,
	}
	up.Flags().StringVar(&meshAuthKey, "authkey", "", "Pre-authorised key")
	up.Flags().StringVar(&meshAuthKeyURL, "authkey-url", "", "Fetch a single-use key from this mint endpoint (default mesh.authkey_url)")
	up.Flags().BoolVar(&meshReset, "reset", false, "Reset settings left by a previous up")
	cmd.AddCommand(up)

	cmd.AddCommand(&cobra.Command{
		Use:   "quit-gui",
		Short: "Close the mesh client's GUI companion",
		Args:  cobra.NoArgs,
		RunE:  runMeshQuitGUI,
	})
	return cmd
}

func runMeshVersion(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	res, err := a.mesh().Version(commandContext(cmd))
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd, res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", res.Version, res.Path)
	return nil
}

func runMeshStatus(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	doc, err := a.mesh().Status(commandContext(cmd))
	if err != nil {
		return err
	}
	if outputJSON {
		printText(cmd, doc)
		return nil
	}
	sum, err := mesh.ParseStatus(doc)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-8s %s\n", "State", sum.BackendState)
	fmt.Fprintf(out, "%-8s %s\n", "Host", tui.NonEmptyOrDash(sum.HostName))
	fmt.Fprintf(out, "%-8s %s\n", "DNS", tui.NonEmptyOrDash(sum.DNSName))
	fmt.Fprintf(out, "%-8s %s\n", "Address", tui.NonEmptyOrDash(strings.Join(sum.Addresses, ", ")))
	fmt.Fprintf(out, "%-8s %t\n", "Online", sum.Online)
	fmt.Fprintf(out, "%-8s %d\n", "Peers", sum.Peers)
	return nil
}

func runMeshNetcheck(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	doc, err := a.mesh().Netcheck(commandContext(cmd))
	if err != nil {
		return err
	}
	printText(cmd, doc)
	return nil
}

func runMeshUp(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	key := meshAuthKey
	endpoint := ""
	if key == "" {
		endpoint = meshAuthKeyURL
		if endpoint == "" {
			endpoint = a.cfg.Mesh.AuthKeyURL
		}
		if endpoint == "" {
			return errors.New("mesh up needs --authkey or an auth-key endpoint")
		}
	}

	phases := []string{"joining mesh"}
	if endpoint != "" {
		phases = append([]string{"fetching auth key"}, phases...)
	}
	var w io.Writer = io.Discard
	if tui.DetectMode(cmd.ErrOrStderr(), noProgress, outputJSON) == tui.ModeTUI {
		w = cmd.ErrOrStderr()
	}
	line := tui.NewPhaseLine(w, phases...)

	out, err := meshUp(ctx, a, line, key, endpoint)
	line.Finish(err)
	_ = a.sink.Append("mesh up: " + outcomeWord(err))
	if err != nil {
		return err
	}
	printText(cmd, out)
	return nil
}

// meshUp fetches a key from endpoint when key is empty, then joins the mesh,
// advancing line at each phase.
func meshUp(ctx context.Context, a *app, line *tui.PhaseLine, key, endpoint string) (string, error) {
	if key == "" {
		line.Next()
		store, err := a.secrets()
		if err != nil {
			return "", err
		}
		token, err := store.Get(a.cfg.Mesh.OperatorTokenKey)
		if err != nil {
			return "", fmt.Errorf("operator token: %w", err)
		}
		minted, err := authkey.Fetch(ctx, &http.Client{Timeout: 30 * time.Second}, endpoint, token)
		if err != nil {
			return "", err
		}
		key = minted.AuthKey
		_ = a.sink.Append("mesh auth key fetched from " + endpoint)
	}
	line.Next()
	return a.mesh().Up(ctx, key, meshReset)
}

func runMeshQuitGUI(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	out, err := a.mesh().QuitGUI(commandContext(cmd))
	if err != nil {
		return err
	}
	if out != "" {
		printText(cmd, out)
	}
	return nil
}

func outcomeWord(err error) string {
	if err != nil {
		return "err: " + err.Error()
	}
	return "ok"
}
