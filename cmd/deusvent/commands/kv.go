package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func kvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kv",
		Short: "Inspect the local storage",
	}

	get := &cobra.Command{
		Use:  "get [key]",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok, err := store.GetItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%q not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
	set := &cobra.Command{
		Use:  "set [key] [value]",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.SetItem(cmd.Context(), args[0], args[1])
		},
	}
	rm := &cobra.Command{
		Use:  "rm [key]",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.RemoveItem(cmd.Context(), args[0])
		},
	}
	ls := &cobra.Command{
		Use:  "ls [prefix]",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			items, err := store.Items(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", it.Key, it.Value)
			}
			return nil
		},
	}
	clearCmd := &cobra.Command{
		Use:  "clear",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.Clear(cmd.Context())
		},
	}

	cmd.AddCommand(get, set, rm, ls, clearCmd)
	return cmd
}
