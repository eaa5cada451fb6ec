// Package remover drives the validate → {remove|deconfigure|purge}*
// pipeline spec.md §4.G describes: the mirror image of the installer,
// tearing a package's files and database entry down in the reverse
// order they were put up.
package remover

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/control"
	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/files"
	"github.com/dpkgo/dpkgo/pkg/logger"
	"github.com/dpkgo/dpkgo/pkg/shell"
	"github.com/dpkgo/dpkgo/pkg/tracker"
)

// Candidate is one package working through the remover's pipeline.
type Candidate struct {
	Name     string
	Control  *control.File
	Payload  []*files.FileInfo
	BackupID string // scratch area holding the removed files, set during Remove
}

// Remover applies remove/deconfigure/purge to Candidates registered
// against an admin database, journaling each step for rollback.
type Remover struct {
	Config    admin.Config
	Manager   *admin.Manager
	Journal   *tracker.Journal
	ScriptEnv shell.ScriptEnv
}

// New returns a Remover ready to operate against cfg's admin database.
func New(cfg admin.Config, mgr *admin.Manager, journal *tracker.Journal) *Remover {
	return &Remover{
		Config:    cfg,
		Manager:   mgr,
		Journal:   journal,
		ScriptEnv: shell.ScriptEnv{RootDir: cfg.RootDir, InstDir: cfg.InstDir, AdminDir: cfg.AdminDir},
	}
}

// Remove runs prerm remove, deletes every non-conffile payload path and
// any directory left empty by that deletion, runs postrm remove, and
// transitions the package to config-files, per spec.md §4.G.
func (r *Remover) Remove(ctx context.Context, cand *Candidate) error {
	if err := checkRemovable(r.Config, r.Manager, cand.Name); err != nil {
		return err
	}

	if script, ok := scriptField(cand.Control, "prerm"); ok {
		if err := shell.RunMaintainerScript(ctx, script, cand.Name, r.ScriptEnv, "remove"); err != nil {
			return errors.Wrap(err, errors.ErrTypeInvalid, "prerm remove failed for "+cand.Name)
		}
	}

	backupID := cand.Name + "-remove"

	nonConffiles := nonConffilePaths(cand.Payload)
	if err := backupAndDeleteFiles(r.Config.AdminDir, r.Config.InstDir, backupID, nonConffiles); err != nil {
		return err
	}

	cand.BackupID = backupID

	deleteEmptyDirs(r.Config.InstDir, cand.Payload)

	if script, ok := scriptField(cand.Control, "postrm"); ok {
		if err := shell.RunMaintainerScript(ctx, script, cand.Name, r.ScriptEnv, "remove"); err != nil {
			return errors.Wrap(err, errors.ErrTypeInvalid, "postrm remove failed for "+cand.Name)
		}
	}

	if err := r.Manager.SetField(cand.Name, "X-Status", "config-files"); err != nil {
		return err
	}

	r.Manager.Track(tracker.NewRemoveLine(cand.Name, cand.Version(), backupID))

	return nil
}

// Deconfigure runs prerm deconfigure in-favour <inFavourOf> without
// deleting any file, transitioning the package to half-configured.
func (r *Remover) Deconfigure(ctx context.Context, cand *Candidate, inFavourOf string) error {
	if script, ok := scriptField(cand.Control, "prerm"); ok {
		if err := shell.RunMaintainerScript(ctx, script, cand.Name, r.ScriptEnv,
			"deconfigure", "in-favour", inFavourOf); err != nil {
			return errors.Wrap(err, errors.ErrTypeInvalid, "prerm deconfigure failed for "+cand.Name)
		}
	}

	if err := r.Manager.SetField(cand.Name, "X-Status", "half-configured"); err != nil {
		return err
	}

	r.Manager.Track(tracker.NewDeconfigureLine(cand.Name))

	return nil
}

// Purge runs postrm purge, deletes the recorded conffiles and the
// admin database entry, and transitions the package to not-installed.
// Only valid once status is config-files or later.
func (r *Remover) Purge(ctx context.Context, cand *Candidate) error {
	status, err := r.Manager.PackageStatus(cand.Name)
	if err != nil {
		return err
	}

	if !purgeableFrom(status) {
		return errors.New(errors.ErrTypeInvalid,
			cand.Name+" cannot be purged from status "+status)
	}

	if script, ok := scriptField(cand.Control, "postrm"); ok {
		if err := shell.RunMaintainerScript(ctx, script, cand.Name, r.ScriptEnv, "purge"); err != nil {
			return errors.Wrap(err, errors.ErrTypeInvalid, "postrm purge failed for "+cand.Name)
		}
	}

	for _, entry := range cand.Payload {
		if !entry.IsConfigFile() {
			continue
		}

		path := filepath.Join(r.Config.InstDir, entry.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrTypeIO, "removing conffile "+path)
		}
	}

	if err := r.Manager.PurgePackage(cand.Name); err != nil {
		return err
	}

	r.Manager.Track(tracker.NewPurgeLine(cand.Name))

	return nil
}

// purgeableFrom reports whether status permits a purge transition.
func purgeableFrom(status string) bool {
	switch status {
	case "config-files", "half-installed", "half-configured", "unpacked":
		return true
	default:
		return false
	}
}

// Invert implements tracker.Inverter for journal entries this package
// produces during its own operations: "remove" restores the backed-up
// files; "deconfigure" has no generic inverse here since reconfiguring
// requires the original candidate archive, so it is logged only.
// "purge" is irreversible by design and is also logged only.
func (r *Remover) Invert(cmd tracker.Command) error {
	switch cmd.Verb {
	case tracker.VerbRemove:
		if len(cmd.Args) < 3 {
			return errors.New(errors.ErrTypeParse, "malformed remove journal line")
		}

		name, backupID := cmd.Args[0], cmd.Args[2]

		if backupID == "-" {
			return nil
		}

		if err := restoreBackup(r.Config.AdminDir, r.Config.InstDir, backupID); err != nil {
			return err
		}

		return r.Manager.SetField(name, "X-Status", "installed")
	case tracker.VerbDeconfigure:
		logger.Warn("deconfigure cannot be auto-inverted, original archive required",
			"package", firstArg(cmd.Args))

		return nil
	case tracker.VerbPurge:
		logger.Warn("purge is irreversible, database entry was deleted",
			"package", firstArg(cmd.Args))

		return nil
	default:
		return nil
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}

// Version returns c's Version control field, or "" if unset.
func (c *Candidate) Version() string {
	if c.Control == nil {
		return ""
	}

	field, ok := c.Control.Get("Version")
	if !ok {
		return ""
	}

	return field.Value
}

func scriptField(cf *control.File, name string) (string, bool) {
	if cf == nil {
		return "", false
	}

	field, ok := cf.Get(name)
	if !ok || field.Value == "" {
		return "", false
	}

	return field.Value, true
}

func nonConffilePaths(payload []*files.FileInfo) []string {
	var paths []string

	for _, entry := range payload {
		if entry.IsDirectory() || entry.IsConfigFile() {
			continue
		}

		paths = append(paths, entry.Filename)
	}

	return paths
}

// deleteEmptyDirs removes every directory payload entry that is left
// empty after its files were deleted, deepest paths first.
func deleteEmptyDirs(instDir string, payload []*files.FileInfo) {
	var dirs []string

	for _, entry := range payload {
		if entry.IsDirectory() {
			dirs = append(dirs, entry.Filename)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	for _, rel := range dirs {
		_ = os.Remove(filepath.Join(instDir, rel))
	}
}
