package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"teleop/internal/secrets"
)

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store credentials in the configured secret store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Store a secret; the value is read from stdin when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runSecretSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretGet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "delete KEY",
		Aliases: []string{"clear"},
		Short:   "Remove a stored secret",
		Args:    cobra.ExactArgs(1),
		RunE:    runSecretDelete,
	})
	return cmd
}

func openSecrets(cmd *cobra.Command) (secrets.Store, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, err
	}
	return a.secrets()
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	store, err := openSecrets(cmd)
	if err != nil {
		return err
	}
	value := ""
	if len(args) == 2 {
		value = args[1]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read secret from stdin: %w", err)
		}
		value = strings.TrimRight(line, "\r\n")
	}
	if value == "" {
		return errors.New("secret value is empty")
	}
	return store.Set(args[0], value)
}

func runSecretGet(cmd *cobra.Command, args []string) error {
	store, err := openSecrets(cmd)
	if err != nil {
		return err
	}
	value, err := store.Get(args[0])
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd, map[string]string{"key": args[0], "value": value})
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	store, err := openSecrets(cmd)
	if err != nil {
		return err
	}
	return store.Delete(args[0])
}
