package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildVersion is overridden at link time via -ldflags
// "-X github.com/dpkgo/dpkgo/cmd/dpkgo/command.buildVersion=...".
var buildVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "ℹ️  Print the dpkgo version",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println("dpkgo " + buildVersion)

		return nil
	},
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	rootCmd.AddCommand(versionCmd)
}
