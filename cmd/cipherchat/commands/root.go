package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cipherchat/internal/app"
	"cipherchat/internal/security"
)

var (
	configPath string
	keysDir    string
	passphrase string
	wire       *app.Wire
)

func Execute() error {
	ctx := context.Background()
	err := newRoot().ExecuteContext(ctx)
	// Close also when the command failed so failure counters and events
	// are flushed.
	if wire != nil {
		if cerr := wire.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
		wire = nil
	}
	return err
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "cipherchat",
		Short:        "Hybrid RSA/AES encrypted messaging",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if keysDir != "" {
				cfg.Storage.KeysDir = keysDir
			}
			if passphrase != "" {
				cfg.Storage.Passphrase = passphrase
			}
			wire, err = app.NewWire(cmd.Context(), cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&keysDir, "keys-dir", "", "key directory (overrides config)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting private keys at rest")

	root.AddCommand(
		keygenCmd(),
		listCmd(),
		deleteCmd(),
		fingerprintCmd(),
		exportCmd(),
		importCmd(),
		sendCmd(),
		recvCmd(),
		kxCmd(),
	)
	return root
}

// readInput returns the contents of path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	// Base64 and JSON framing expand a maximal message by well under 4x.
	limit := int64(wire.Validator.MaxMessageBytes())*4 + security.MaxKeyFileBytes
	if path == "" || path == "-" {
		return security.ReadLimited(cmd.InOrStdin(), limit, "stdin")
	}
	return security.ReadFile(path, limit)
}

// writeOutput writes b to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, b []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	}
	if err := security.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
