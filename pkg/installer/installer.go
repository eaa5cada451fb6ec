package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/depends"
	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/files"
	"github.com/dpkgo/dpkgo/pkg/hooks"
	"github.com/dpkgo/dpkgo/pkg/logger"
	"github.com/dpkgo/dpkgo/pkg/platform"
	"github.com/dpkgo/dpkgo/pkg/set"
	"github.com/dpkgo/dpkgo/pkg/shell"
	"github.com/dpkgo/dpkgo/pkg/tracker"
)

// Installer drives the Collect → Validate → PreConfigure →
// {Unpack → Configure}* global phases spec.md §4.F describes over a
// batch of Candidates.
type Installer struct {
	Config    admin.Config
	Manager   *admin.Manager
	Target    Target
	Journal   *tracker.Journal
	ScriptEnv shell.ScriptEnv

	Candidates map[string]*Candidate
	order      []string // unpack order, computed by Validate
}

// New returns an Installer ready for Collect.
func New(cfg admin.Config, mgr *admin.Manager, target Target, journal *tracker.Journal) *Installer {
	return &Installer{
		Config:     cfg,
		Manager:    mgr,
		Target:     target,
		Journal:    journal,
		ScriptEnv:  shell.ScriptEnv{RootDir: cfg.RootDir, InstDir: cfg.InstDir, AdminDir: cfg.AdminDir},
		Candidates: make(map[string]*Candidate),
	}
}

// Collect registers cand as wanted, recording its install type.
func (in *Installer) Collect(cand *Candidate, installType InstallType) {
	cand.State = StateWanted
	cand.InstallType = installType
	in.Candidates[cand.Name] = cand
}

// ValidateAll runs Validate over every collected candidate and, if all
// pass, computes the Pre-Depends topological unpack order.
func (in *Installer) ValidateAll() error {
	names := make([]string, 0, len(in.Candidates))
	preDependsEdges := make(map[string][]string)

	for name, cand := range in.Candidates {
		if err := in.Manager.CheckInterrupt(); err != nil {
			return err
		}

		if err := Validate(in.Config, in.Manager, in.Target, cand); err != nil {
			return err
		}

		names = append(names, name)
		preDependsEdges[name] = preDependsNames(cand)
	}

	order, err := set.TopoSort(names, preDependsEdges)
	if err != nil {
		return err
	}

	in.order = order

	return nil
}

// preDependsNames returns the package names cand's Pre-Depends field
// names, the edge set set.TopoSort orders unpack by (spec.md §4.F:
// "order for unpacking is derived from a topological sort over
// Pre-Depends").
func preDependsNames(cand *Candidate) []string {
	if cand.Control == nil {
		return nil
	}

	field, ok := cand.Control.Get("Pre-Depends")
	if !ok || field.Value == "" {
		return nil
	}

	expr, err := depends.Parse(field.Value)
	if err != nil {
		return nil
	}

	var names []string

	for _, clause := range expr.Clauses {
		for _, atom := range clause.Atoms {
			names = append(names, atom.Name)
		}
	}

	return names
}

// PreConfigure runs every "validate" hook registered globally before
// any unpack begins; a non-zero exit aborts the whole transaction.
func (in *Installer) PreConfigure(ctx context.Context) error {
	return hooks.RunPhase(ctx, in.Manager, "validate", in.ScriptEnv)
}

// Run executes Unpack then Configure over every validated candidate in
// topological order, rolling back on failure unless force-rollback is
// explicitly disabled.
func (in *Installer) Run(ctx context.Context) error {
	for _, name := range in.order {
		cand := in.Candidates[name]

		if err := in.Manager.CheckInterrupt(); err != nil {
			return in.failAndMaybeRollback(err)
		}

		if err := in.Unpack(ctx, cand); err != nil {
			return in.failAndMaybeRollback(err)
		}
	}

	for _, name := range in.order {
		cand := in.Candidates[name]

		if err := in.Configure(ctx, cand); err != nil {
			return in.failAndMaybeRollback(err)
		}
	}

	if in.Journal != nil {
		return in.Journal.Commit()
	}

	return nil
}

func (in *Installer) failAndMaybeRollback(cause error) error {
	if in.Journal == nil {
		return cause
	}

	if in.Config.IsForced("no-force-rollback") {
		return cause
	}

	if err := in.Journal.Rollback(in); err != nil {
		logger.Warn("rollback itself failed", "error", err)
	}

	return cause
}

// Unpack extracts cand's payload onto the target root: backs up
// displaced files, writes content, applies ownership, then writes the
// admin database snapshot and runs preinst, per spec.md §4.F.
func (in *Installer) Unpack(ctx context.Context, cand *Candidate) error {
	backupID := cand.Name + "-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	displaced := displacedPaths(in.Config.InstDir, cand.Payload)
	if err := BackupDisplacedFiles(in.Config.AdminDir, in.Config.InstDir, backupID, displaced); err != nil {
		return err
	}

	cand.BackupID = backupID

	if err := extractPayload(in.Config.InstDir, cand.Payload); err != nil {
		return err
	}

	if err := writeSnapshot(in.Config, cand); err != nil {
		return err
	}

	if script, ok := scriptField(cand, "preinst"); ok {
		action := "install"
		if cand.PreviousVersion != "" {
			action = "upgrade"
		}

		if err := shell.RunMaintainerScript(ctx, script, cand.Name, in.ScriptEnv); err != nil {
			return errors.Wrap(err, errors.ErrTypeInvalid, "preinst "+action+" failed for "+cand.Name)
		}
	}

	cand.State = StateUnpacked

	in.Manager.Track(tracker.NewUnpackLine(cand.Name, cand.Version(), backupID))

	return nil
}

// Configure runs postinst and transitions cand to StateConfigured,
// journaling the step for rollback.
func (in *Installer) Configure(ctx context.Context, cand *Candidate) error {
	if cand.State != StateUnpacked {
		return errors.New(errors.ErrTypeInvalid, cand.Name+" is not unpacked, cannot configure")
	}

	if script, ok := scriptField(cand, "postinst"); ok {
		if err := shell.RunMaintainerScript(ctx, script, cand.Name, in.ScriptEnv); err != nil {
			return errors.Wrap(err, errors.ErrTypeInvalid, "postinst configure failed for "+cand.Name)
		}
	}

	cand.State = StateConfigured

	if err := in.Manager.SetField(cand.Name, "X-Status", "installed"); err != nil {
		return err
	}

	in.Manager.Track(tracker.NewConfigureLine(cand.Name))

	return nil
}

// Invert implements tracker.Inverter: "configure" inverts to resetting
// X-Status to unpacked; "unpack" inverts to deleting the unpacked files
// and restoring any backed-up displaced ones, per spec.md §4.H.
func (in *Installer) Invert(cmd tracker.Command) error {
	switch cmd.Verb {
	case tracker.VerbConfigure:
		if len(cmd.Args) < 1 {
			return errors.New(errors.ErrTypeParse, "malformed configure journal line")
		}

		return in.Manager.SetField(cmd.Args[0], "X-Status", "unpacked")
	case tracker.VerbUnpack:
		if len(cmd.Args) < 3 {
			return errors.New(errors.ErrTypeParse, "malformed unpack journal line")
		}

		name, backupID := cmd.Args[0], cmd.Args[2]

		cand := in.Candidates[name]
		if cand != nil {
			if err := removePayload(in.Config.InstDir, cand.Payload); err != nil {
				logger.Warn("failed to remove unpacked files during rollback", "package", name, "error", err)
			}
		}

		if backupID != "-" {
			return RestoreDisplacedFiles(in.Config.AdminDir, in.Config.InstDir, backupID)
		}

		return nil
	default:
		return nil
	}
}

func scriptField(cand *Candidate, name string) (string, bool) {
	if cand.Control == nil {
		return "", false
	}

	field, ok := cand.Control.Get(name)
	if !ok || field.Value == "" {
		return "", false
	}

	return field.Value, true
}

// displacedPaths returns every payload path that already exists on
// instDir before unpack begins.
func displacedPaths(instDir string, payload []*files.FileInfo) []string {
	var displaced []string

	for _, entry := range payload {
		if _, err := os.Stat(filepath.Join(instDir, entry.Filename)); err == nil {
			displaced = append(displaced, entry.Filename)
		}
	}

	return displaced
}

// extractPayload materializes payload onto instDir in the order
// spec.md §4.F requires: directories first, then hard links and
// regular files, then symlinks. Content bytes are written by the
// archive codec's tar extraction step ahead of this call; materialize
// creates the directory/symlink structure and applies the recorded
// mode and ownership to whatever the codec already placed on disk.
func extractPayload(instDir string, payload []*files.FileInfo) error {
	ordered := make([]*files.FileInfo, len(payload))
	copy(ordered, payload)

	sort.SliceStable(ordered, func(i, j int) bool {
		return extractionRank(ordered[i].Type) < extractionRank(ordered[j].Type)
	})

	for _, entry := range ordered {
		dest := filepath.Join(instDir, entry.Filename)

		if err := materialize(dest, entry); err != nil {
			return err
		}
	}

	return nil
}

func extractionRank(t files.Type) int {
	switch t {
	case files.TypeDirectory:
		return 0
	case files.TypeHardLink, files.TypeRegular, files.TypeConfig, files.TypeConfigNoReplace:
		return 1
	case files.TypeSymlink:
		return 2
	default:
		return 1
	}
}

func materialize(dest string, entry *files.FileInfo) error {
	switch entry.Type {
	case files.TypeDirectory:
		if err := os.MkdirAll(dest, entry.Mode); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "creating directory "+dest)
		}
	case files.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "creating parent directory for "+dest)
		}

		_ = os.Remove(dest)

		if err := os.Symlink(entry.LinkTarget, dest); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "creating symlink "+dest)
		}
	default:
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "creating parent directory for "+dest)
		}
	}

	owner := platform.ResolveOwner(entry.User, entry.Group, entry.UID, entry.GID)

	if entry.Type != files.TypeSymlink {
		return platform.ApplyOwnership(dest, owner)
	}

	return nil
}

// removePayload deletes every regular/hard-link/symlink path payload
// owns, the inverse half of Unpack used during rollback.
func removePayload(instDir string, payload []*files.FileInfo) error {
	for i := len(payload) - 1; i >= 0; i-- {
		entry := payload[i]
		if entry.Type == files.TypeDirectory {
			continue
		}

		path := filepath.Join(instDir, entry.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrTypeIO, "removing "+path)
		}
	}

	return nil
}

// writeSnapshot persists cand's control file, md5sums and conffiles
// list into <admindir>/<name>/.
func writeSnapshot(cfg admin.Config, cand *Candidate) error {
	dir := cfg.PackageDir(cand.Name)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating package directory for "+cand.Name)
	}

	cand.Control.Set("X-Status", "unpacked")

	if err := os.WriteFile(filepath.Join(dir, "control"), []byte(cand.Control.Write()), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing control snapshot for "+cand.Name)
	}

	md5sums := ""
	conffiles := ""

	for _, entry := range cand.Payload {
		if entry.MD5Sum != "" {
			md5sums += fmt.Sprintf("%s  %s\n", entry.MD5Sum, entry.Filename)
		}

		if entry.IsConfigFile() {
			conffiles += "/" + entry.Filename + "\n"
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "md5sums"), []byte(md5sums), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing md5sums for "+cand.Name)
	}

	if conffiles != "" {
		if err := os.WriteFile(filepath.Join(dir, "conffiles"), []byte(conffiles), 0o644); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "writing conffiles for "+cand.Name)
		}
	}

	return nil
}
