package command

import (
	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/installer"
	"github.com/dpkgo/dpkgo/pkg/logger"
)

var configureCmd = &cobra.Command{
	Use:     "configure <package>...",
	Short:   "⚙️  Run postinst for packages left in the unpacked state",
	GroupID: "transaction",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	mgr := newManager(cfg)

	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}

	mgr.SetTracker(journal)

	in := installer.New(cfg, mgr, targetFor(mgr), journal)

	for _, name := range args {
		status, err := mgr.PackageStatus(name)
		if err != nil {
			return err
		}

		if status != "unpacked" {
			logger.Warn("package is not in the unpacked state, skipping", "package", name, "status", status)
			continue
		}

		cf, err := mgr.LoadPackage(name)
		if err != nil {
			return err
		}

		cand := &installer.Candidate{Name: name, Control: cf, State: installer.StateUnpacked}

		if err := in.Configure(cmd.Context(), cand); err != nil {
			return err
		}

		logger.Info("package configured", "package", name)
	}

	return journal.Commit()
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	rootCmd.AddCommand(configureCmd)
}
