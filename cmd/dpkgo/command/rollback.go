package command

import (
	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/installer"
	"github.com/dpkgo/dpkgo/pkg/logger"
	"github.com/dpkgo/dpkgo/pkg/remover"
	"github.com/dpkgo/dpkgo/pkg/tracker"
)

var rollbackCmd = &cobra.Command{
	Use:     "rollback <journal-file>",
	Short:   "↩️  Replay a kept transaction journal backwards, undoing it",
	GroupID: "transaction",
	Args:    cobra.ExactArgs(1),
	RunE:    runRollback,
}

// combinedInverter dispatches a journal line to whichever subsystem
// owns its verb: installer verbs go to in, remover verbs go to rm.
type combinedInverter struct {
	in *installer.Installer
	rm *remover.Remover
}

func (c combinedInverter) Invert(cmd tracker.Command) error {
	switch cmd.Verb {
	case tracker.VerbRemove, tracker.VerbDeconfigure, tracker.VerbPurge:
		return c.rm.Invert(cmd)
	default:
		return c.in.Invert(cmd)
	}
}

func runRollback(_ *cobra.Command, args []string) error {
	cfg := buildConfig()
	mgr := newManager(cfg)

	journal := tracker.ReplayFrom(args[0])
	mgr.SetTracker(journal)

	in := installer.New(cfg, mgr, targetFor(mgr), journal)
	rm := remover.New(cfg, mgr, journal)

	if err := journal.Rollback(combinedInverter{in: in, rm: rm}); err != nil {
		return err
	}

	logger.Info("journal rolled back", "journal", args[0])

	return nil
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	rootCmd.AddCommand(rollbackCmd)
}
