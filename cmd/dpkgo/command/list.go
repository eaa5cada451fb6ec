package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/logger"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"installed"},
	Short:   "📋 List installed packages and their status",
	GroupID: "query",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var statusCmd = &cobra.Command{
	Use:     "status <package>...",
	Short:   "🔍 Show the control stanza and status of installed packages",
	GroupID: "query",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runStatus,
}

func runList(_ *cobra.Command, _ []string) error {
	cfg := buildConfig()
	mgr := newManager(cfg)

	names, err := mgr.ListInstalledPackages()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		logger.Info("no packages are recorded in the administrative database")

		return nil
	}

	for _, name := range names {
		status, err := mgr.PackageStatus(name)
		if err != nil {
			return err
		}

		version, _ := mgr.GetField(name, "Version")
		fmt.Printf("%-8s %-32s %s\n", status, name, version)
	}

	return nil
}

func runStatus(_ *cobra.Command, args []string) error {
	cfg := buildConfig()
	mgr := newManager(cfg)

	for i, name := range args {
		if i > 0 {
			fmt.Println()
		}

		cf, err := mgr.LoadPackage(name)
		if err != nil {
			return err
		}

		fmt.Print(cf.Write())
	}

	return nil
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
}
