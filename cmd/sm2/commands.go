package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/protocol/guard"
	"github.com/smallyu/go-sm2/internal/protocol/keygen"
	"github.com/smallyu/go-sm2/internal/protocol/sign"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// errInvalidSignature is returned by verify so the process exits non-zero.
var errInvalidSignature = errors.New("signature is invalid")

func newRootCmd() (*cobra.Command, error) {
	v := viper.New()
	root := &cobra.Command{
		Use:          "sm2",
		Short:        "SM2 (GB/T 32918.2) key generation, signing and verification",
		SilenceUsage: true,
	}
	if err := bindFlags(root, v); err != nil {
		return nil, err
	}

	root.AddCommand(
		keygenCmd(v),
		pubkeyCmd(v),
		signCmd(v),
		verifyCmd(v),
	)
	return root, nil
}

// run loads the environment before calling fn and flushes the logger after.
func run(v *viper.Viper, fn func(cmd *cobra.Command, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		e, err := load(v)
		if err != nil {
			return err
		}
		defer e.logger.Sync()
		return fn(cmd, e)
	}
}

func keygenCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and print the private scalar and public point in hex",
		Args:  cobra.NoArgs,
		RunE: run(v, func(cmd *cobra.Command, e *env) error {
			priv, err := guard.GenerateKey(e.scheme, rand.Reader)
			if err != nil {
				return err
			}
			defer priv.Zero()

			e.logger.Info("key generated", zap.String("curve", e.params.Curve))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "private: %s\n", hex.EncodeToString(priv.Bytes()))
			fmt.Fprintf(out, "public:  %s\n", hex.EncodeToString(priv.Public().Bytes()))
			return nil
		}),
	}
}

func pubkeyCmd(v *viper.Viper) *cobra.Command {
	var compressed bool
	cmd := &cobra.Command{
		Use:   "pubkey",
		Short: "Derive the public key of a private scalar",
		Args:  cobra.NoArgs,
		RunE: run(v, func(cmd *cobra.Command, e *env) error {
			priv, err := privateKey(cmd, e)
			if err != nil {
				return err
			}
			defer priv.Zero()

			enc := priv.Public().Bytes()
			if compressed {
				enc = e.scheme.Curve().MarshalCompressed(priv.Point())
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(enc))
			return nil
		}),
	}
	cmd.Flags().String("key", "", "private key in hex (or SM2_KEY)")
	cmd.Flags().BoolVar(&compressed, "compressed", false, "print the compressed encoding")
	return cmd
}

func signCmd(v *viper.Viper) *cobra.Command {
	var der bool
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message with fault checks and print the signature in hex",
		Args:  cobra.NoArgs,
		RunE: run(v, func(cmd *cobra.Command, e *env) error {
			priv, err := privateKey(cmd, e)
			if err != nil {
				return err
			}
			defer priv.Zero()

			msg, err := message(cmd)
			if err != nil {
				return err
			}
			sig, err := e.signer.Sign(msg, priv)
			if err != nil {
				return err
			}

			enc := sig.Bytes(e.scheme.Curve().Params().ScalarBytes())
			if der {
				if enc, err = sig.MarshalDER(); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(enc))
			return nil
		}),
	}
	cmd.Flags().String("key", "", "private key in hex (or SM2_KEY)")
	cmd.Flags().BoolVar(&der, "der", false, "print the ASN.1 DER encoding instead of r || s")
	messageFlags(cmd)
	return cmd
}

func verifyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature; exits non-zero when it is invalid",
		Args:  cobra.NoArgs,
		RunE: run(v, func(cmd *cobra.Command, e *env) error {
			pubHex, _ := cmd.Flags().GetString("pub")
			pub, err := keygen.ParsePublicKeyHex(e.scheme.Curve(), pubHex)
			if err != nil {
				return err
			}
			sigHex, _ := cmd.Flags().GetString("sig")
			sig, err := parseSignature(sigHex, e.scheme.Curve().Params().ScalarBytes())
			if err != nil {
				return err
			}
			msg, err := message(cmd)
			if err != nil {
				return err
			}

			if !e.signer.Verify(msg, sig, pub) {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				return errInvalidSignature
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		}),
	}
	cmd.Flags().String("pub", "", "public key in hex, any supported point encoding")
	cmd.Flags().String("sig", "", "signature in hex, r || s or DER")
	messageFlags(cmd)
	return cmd
}

func messageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("msg", "m", "", "message text")
	cmd.Flags().StringP("in", "i", "", "read the message from a file")
}

func message(cmd *cobra.Command) ([]byte, error) {
	if path, _ := cmd.Flags().GetString("in"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading message")
		}
		return data, nil
	}
	text, _ := cmd.Flags().GetString("msg")
	return []byte(text), nil
}

// privateKey reads --key, falling back to SM2_KEY.
func privateKey(cmd *cobra.Command, e *env) (*keygen.PrivateKey, error) {
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		if err := e.v.BindEnv("key"); err != nil {
			return nil, errors.Wrap(err, "binding SM2_KEY")
		}
		key = e.v.GetString("key")
	}
	if key == "" {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "a private key is required")
	}
	return keygen.ParsePrivateKeyHex(e.scheme.Curve(), key)
}

// parseSignature accepts DER and the fixed-width r || s form.
func parseSignature(s string, size int) (*sign.Signature, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, sm2.MakeError(sm2.ErrInvalidEncoding, "signature is not hex")
	}
	if len(raw) > 0 && raw[0] == 0x30 {
		if sig, err := sign.ParseDER(raw); err == nil {
			return sig, nil
		}
	}
	if len(raw) != 2*size {
		return nil, sm2.MakeError(sm2.ErrInvalidEncoding, "signature is neither DER nor r || s")
	}
	return sign.ParseSignature(raw)
}
