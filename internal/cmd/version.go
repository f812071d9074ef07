package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shelf version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shelf %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
