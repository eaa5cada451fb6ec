package command

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/installer"
	"github.com/dpkgo/dpkgo/pkg/logger"
)

var installCmd = &cobra.Command{
	Use:     "install <archive>...",
	Short:   "📥 Install one or more .deb archives",
	GroupID: "transaction",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	mgr := newManager(cfg)

	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}

	mgr.SetTracker(journal)

	in := installer.New(cfg, mgr, targetFor(mgr), journal)

	scratch, err := os.MkdirTemp("", "dpkgo-install-")
	if err != nil {
		return err
	}

	defer os.RemoveAll(scratch)

	for _, archivePath := range args {
		cand, err := loadArchiveCandidate(archivePath, scratch)
		if err != nil {
			return err
		}

		in.Collect(cand, installer.InstallExplicit)
	}

	if err := in.ValidateAll(); err != nil {
		return err
	}

	if err := in.PreConfigure(cmd.Context()); err != nil {
		return err
	}

	if err := in.Run(cmd.Context()); err != nil {
		return err
	}

	for name := range in.Candidates {
		logger.Info("package installed", "package", name)
	}

	return nil
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	rootCmd.AddCommand(installCmd)
}
