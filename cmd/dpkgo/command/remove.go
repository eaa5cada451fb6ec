package command

import (
	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/logger"
	"github.com/dpkgo/dpkgo/pkg/remover"
)

var removeCmd = &cobra.Command{
	Use:     "remove <package>...",
	Aliases: []string{"uninstall"},
	Short:   "🗑️  Remove packages, keeping conffiles behind",
	GroupID: "transaction",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemove,
}

var purgeCmd = &cobra.Command{
	Use:     "purge <package>...",
	Short:   "🔥 Remove packages and delete their conffiles too",
	GroupID: "transaction",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runPurge,
}

var autoremoveCmd = &cobra.Command{
	Use:     "autoremove",
	Short:   "🧹 Remove auto-installed packages no manually-installed package depends on",
	GroupID: "transaction",
	Args:    cobra.NoArgs,
	RunE:    runAutoremove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	return withRemover(cmd, args, func(r *remover.Remover, cand *remover.Candidate) error {
		if err := r.Remove(cmd.Context(), cand); err != nil {
			return err
		}

		logger.Info("package removed", "package", cand.Name)

		return nil
	})
}

func runPurge(cmd *cobra.Command, args []string) error {
	return withRemover(cmd, args, func(r *remover.Remover, cand *remover.Candidate) error {
		status, err := r.Manager.PackageStatus(cand.Name)
		if err != nil {
			return err
		}

		if status == "installed" {
			if err := r.Remove(cmd.Context(), cand); err != nil {
				return err
			}
		}

		if err := r.Purge(cmd.Context(), cand); err != nil {
			return err
		}

		logger.Info("package purged", "package", cand.Name)

		return nil
	})
}

func runAutoremove(cmd *cobra.Command, _ []string) error {
	cfg := buildConfig()
	mgr := newManager(cfg)

	names, err := remover.ComputeAutoRemovable(mgr)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		logger.Info("no auto-installed packages are eligible for removal")

		return nil
	}

	return withRemover(cmd, names, func(r *remover.Remover, cand *remover.Candidate) error {
		if err := r.Remove(cmd.Context(), cand); err != nil {
			return err
		}

		logger.Info("auto-installed package removed", "package", cand.Name)

		return nil
	})
}

// withRemover opens the admin database and journal once, runs fn for
// every named package's loaded Candidate, and commits the journal.
func withRemover(_ *cobra.Command, names []string, fn func(*remover.Remover, *remover.Candidate) error) error {
	cfg := buildConfig()
	mgr := newManager(cfg)

	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}

	mgr.SetTracker(journal)

	r := remover.New(cfg, mgr, journal)

	for _, name := range names {
		cf, err := mgr.LoadPackage(name)
		if err != nil {
			return err
		}

		payload, err := loadInstalledPayload(cfg, name)
		if err != nil {
			return err
		}

		cand := &remover.Candidate{Name: name, Control: cf, Payload: payload}

		if err := fn(r, cand); err != nil {
			return err
		}
	}

	return journal.Commit()
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(autoremoveCmd)
}
