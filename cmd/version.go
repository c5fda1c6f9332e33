package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/redwire/internal/meta"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := meta.GetInfo()

		fmt.Fprintf(cmd.OutOrStdout(), "redwire %s\n", info)

		if info.GoTag != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "tags %s\n", info.GoTag)
		}

		return nil
	},
}
