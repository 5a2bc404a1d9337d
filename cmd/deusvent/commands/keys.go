package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"deusvent/internal/encoding"
	"deusvent/internal/encryption"
)

var errNoKeys = errors.New("no keys, run `deusvent keys` first")

func loadKeys(ctx context.Context) (encryption.Keys, error) {
	encoded, ok, err := store.GetItem(ctx, keyPrivateKey)
	if err != nil {
		return encryption.Keys{}, err
	}
	if !ok {
		return encryption.Keys{}, errNoKeys
	}
	raw, err := encoding.DecodeBase94(encoded)
	if err != nil {
		return encryption.Keys{}, fmt.Errorf("stored key: %w", err)
	}
	priv, err := encryption.ParsePrivateKey(raw)
	if err != nil {
		return encryption.Keys{}, fmt.Errorf("stored key: %w", err)
	}
	return encryption.Keys{Public: priv.Public(), Private: priv}, nil
}

func keysCmd() *cobra.Command {
	var regenerate bool
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate player keys and print the public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			keys, err := loadKeys(ctx)
			if errors.Is(err, errNoKeys) || regenerate {
				if keys, err = encryption.GenerateKeys(); err != nil {
					return err
				}
				if err := store.SetItem(ctx, keyPrivateKey, encoding.EncodeBase94(keys.Private.Bytes())); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Keys generated.")
			} else if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Public key: %s\n", keys.Public)
			return nil
		},
	}
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "replace existing keys")
	return cmd
}
