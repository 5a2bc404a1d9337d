package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the server status and clock offset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			status, err := c.Ping(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\nServer time: %s\nOffset: %dms\n",
				status.Status, status.Timestamp, c.Clock().Offset())
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()
			reg, err := c.Register(ctx, version)
			if err != nil {
				return err
			}
			if err := store.SetItem(ctx, keyToken, reg.Token); err != nil {
				return err
			}
			if err := store.SetItem(ctx, keyUserID, reg.UserID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered as %s\n", reg.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "client-version", "0.1.0", "client version sent to the server")
	return cmd
}

func decayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decay",
		Short: "Show the decay period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			decay, err := c.Decay(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started at: %s\nLength: %d days (%s)\n",
				decay.StartedAt, decay.Length.WholeDays(), decay.Length)
			return nil
		},
	}
}

func identityCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "identity [name]",
		Short: "Set the player name, encrypted unless --plain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			accepted, err := c.SetIdentity(cmd.Context(), args[0], !plain)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity accepted for %s\n", accepted.UserID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "send the name unencrypted")
	return cmd
}
