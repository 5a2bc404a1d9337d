package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"deusvent/internal/platform"
)

func targetCmd() *cobra.Command {
	var bundled bool
	cmd := &cobra.Command{
		Use:   "target [platform]",
		Short: "Show the native libraries a client build links",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := platform.Current()
			if len(args) == 1 {
				var err error
				if p, err = platform.ParsePlatform(args[0]); err != nil {
					return err
				}
			}
			archive, err := platform.LogicArchive(p)
			if err != nil {
				return err
			}
			src, err := platform.ResolveSQLite(p, bundled)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s\nLogic: %s\nSQLite: %s %s\n", p, archive, src.Kind, src.Library)
			return nil
		},
	}
	cmd.Flags().BoolVar(&bundled, "bundled", false, "use the engine bundled SQLite plugin")
	return cmd
}
