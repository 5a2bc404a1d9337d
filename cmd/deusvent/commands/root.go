// Package commands implements the deusvent player CLI.
package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"deusvent/internal/client"
	"deusvent/internal/kvstore"
)

var (
	home      string
	serverURL string
	grpcAddr  string
	store     *kvstore.Store
)

// Stored item keys.
const (
	keyPrivateKey = "keys.private"
	keyToken      = "auth.token"
	keyUserID     = "auth.user_id"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "deusvent",
		Short:        "Deusvent player client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "target" {
				return nil
			}
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".deusvent")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			s, err := kvstore.Open(filepath.Join(home, "storage.db"))
			if err != nil {
				return err
			}
			store = s
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if store == nil {
				return nil
			}
			err := store.Close()
			store = nil
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.deusvent)")
	root.PersistentFlags().StringVar(&serverURL, "server", "ws://127.0.0.1:8080/ws", "WebSocket gateway URL")
	root.PersistentFlags().StringVar(&grpcAddr, "grpc", "", "gRPC gateway address, used instead of --server when set")

	root.AddCommand(keysCmd(), pingCmd(), registerCmd(), decayCmd(), identityCmd(), kvCmd(), targetCmd())
	return root
}

// connect opens a connection authenticated with the stored token, if any.
func connect(ctx context.Context) (*client.Client, error) {
	keys, err := loadKeys(ctx)
	if err != nil {
		return nil, err
	}
	token, _, err := store.GetItem(ctx, keyToken)
	if err != nil {
		return nil, err
	}
	var conn client.Conn
	if grpcAddr != "" {
		conn, err = client.DialGRPC(grpcAddr, token)
	} else {
		conn, err = client.DialWS(ctx, serverURL, token)
	}
	if err != nil {
		return nil, err
	}
	return client.New(conn, keys), nil
}
