package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
)

// send --from a --to b <message>: seal a message as a SecureEnvelope.
func sendCmd() *cobra.Command {
	var from, to, out string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Encrypt and sign a message into an envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := wire.Channel.Send(cmd.Context(), domain.Username(from), domain.Username(to), []byte(args[0]))
			if err != nil {
				return err
			}
			b, err := domain.MarshalEnvelope(env)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, b)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "sending identity")
	cmd.Flags().StringVar(&to, "to", "", "recipient identity")
	cmd.Flags().StringVarP(&out, "out", "o", "", "envelope file (default stdout)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// recv --as b [file]: open an envelope addressed to b.
func recvCmd() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "recv [file|-]",
		Short: "Decrypt and verify an envelope",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			msg, err := wire.Channel.ReceiveJSON(cmd.Context(), data, domain.Username(as))
			if err != nil {
				return err
			}
			if msg.Expired {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: message is older than %s\n", wire.Channel.StalenessWindow())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", msg.From, msg.Plaintext)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "receiving identity")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func kxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kx",
		Short: "Exchange public keys",
	}
	cmd.AddCommand(kxCreateCmd(), kxProcessCmd())
	return cmd
}

func kxCreateCmd() *cobra.Command {
	var from, to, out string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Produce a signed key exchange carrying your public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := wire.Channel.CreateKeyExchange(cmd.Context(), domain.Username(from), domain.Username(to))
			if err != nil {
				return err
			}
			b, err := domain.MarshalEnvelope(env)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, b)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "identity whose key is sent")
	cmd.Flags().StringVar(&to, "to", "", "intended recipient")
	cmd.Flags().StringVarP(&out, "out", "o", "", "envelope file (default stdout)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func kxProcessCmd() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "process [file|-]",
		Short: "Verify a key exchange and import the sender's key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			env, err := wire.Channel.ProcessKeyExchangeJSON(cmd.Context(), data, domain.Username(as))
			if err != nil {
				return err
			}
			fp, err := crypto.Fingerprint([]byte(env.PublicKey))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported public key for %s.\nFingerprint: %s\nVerify it with %s out of band.\n", env.Sender, fp, env.Sender)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "importing identity (default: the envelope's recipient)")
	return cmd
}
