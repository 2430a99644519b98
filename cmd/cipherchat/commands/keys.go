package commands

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cipherchat/internal/domain"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <name>",
		Short: "Generate and store an RSA key pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.Username(args[0])
			if _, err := wire.Identity.GenerateAndStore(cmd.Context(), name); err != nil {
				return err
			}
			fp, err := wire.Identity.Fingerprint(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity %s created.\nFingerprint: %s\n", name, fp)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := wire.Identity.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no identities")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tBITS\tFINGERPRINT")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Username, info.KeyBits, info.Fingerprint)
			}
			return tw.Flush()
		},
	}
}

func deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Irreversibly delete an identity's keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.Username(args[0])
			if !yes {
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete keys for %s? This cannot be undone. [y/N] ", name)
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
					return fmt.Errorf("aborted")
				}
			}
			if err := wire.Identity.Delete(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <name>",
		Short: "Print public key fingerprints for out-of-band verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.Username(args[0])
			fp, err := wire.Identity.Fingerprint(cmd.Context(), name)
			if err != nil {
				return err
			}
			ssh, err := wire.Identity.SSHFingerprint(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\nSSH:         %s\n", fp, ssh)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write an identity's public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.Username(args[0])
			if out != "" {
				if err := wire.Identity.ExportPublicKeyFile(cmd.Context(), name, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
				return nil
			}
			pub, err := wire.Identity.ExportPublicKey(cmd.Context(), name)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(pub)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <owner> <peer> <file>",
		Short: "Import a peer's public key for use by owner",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, peer := domain.Username(args[0]), domain.Username(args[1])
			if err := wire.Identity.ImportPublicKeyFile(cmd.Context(), owner, peer, args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported public key for %s into %s.\n", peer, owner)
			return nil
		},
	}
}
