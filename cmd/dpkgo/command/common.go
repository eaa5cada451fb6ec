package command

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/archive"
	"github.com/dpkgo/dpkgo/pkg/context"
	"github.com/dpkgo/dpkgo/pkg/control"
	"github.com/dpkgo/dpkgo/pkg/depends"
	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/files"
	"github.com/dpkgo/dpkgo/pkg/installer"
	"github.com/dpkgo/dpkgo/pkg/tracker"
	"github.com/dpkgo/dpkgo/pkg/version"
)

// journalPath is the transaction journal's fixed location under the
// administrative database, spec.md §6.5.
func journalPath(cfg admin.Config) string {
	return filepath.Join(cfg.AdminDir, "tracker.journal")
}

// buildConfig assembles an admin.Config from the persistent flags every
// subcommand shares.
func buildConfig() admin.Config {
	force := make(map[string]bool, len(flagForce))

	for _, name := range flagForce {
		force[name] = true
	}

	for _, name := range flagNoForce {
		force[name] = false
	}

	return admin.Config{
		RootDir:  flagRootDir,
		InstDir:  flagInstDir,
		AdminDir: flagAdminDir,
		Force:    force,
	}
}

// newManager returns an admin.Manager wired to cfg with a fresh
// interrupt flag; SIGINT handling is left to the process environment
// per spec.md §5.
func newManager(cfg admin.Config) *admin.Manager {
	return admin.NewManager(cfg, &context.InterruptFlag{})
}

// targetFor builds the installer.Target the validate phase checks
// candidates against, backed by mgr's installed-package records.
func targetFor(mgr *admin.Manager) installer.Target {
	return installer.Target{
		Architecture:  flagArchitecture,
		Vendor:        flagVendor,
		Distributions: flagDistribution,
		Lookup:        lookupFor(mgr),
	}
}

// lookupFor adapts the admin database to depends.Lookup, the interface
// the dependency evaluator queries installed/candidate state through.
func lookupFor(mgr *admin.Manager) depends.Lookup {
	return func(name string) (bool, version.Version, []string, string) {
		status, err := mgr.PackageStatus(name)
		if err != nil || status != "installed" {
			return false, version.Version{}, nil, ""
		}

		rawVer, _ := mgr.GetField(name, "Version")
		ver, _ := version.Parse(rawVer)

		arch, _ := mgr.GetField(name, "Architecture")

		var provides []string

		if raw, _ := mgr.GetField(name, "Provides"); raw != "" {
			for _, p := range strings.Split(raw, ",") {
				provides = append(provides, strings.TrimSpace(p))
			}
		}

		return true, ver, provides, arch
	}
}

// openJournal opens a fresh transaction journal at cfg's fixed
// location, truncating any stale file left by a crashed run that was
// never committed or kept for rollback.
func openJournal(cfg admin.Config) (*tracker.Journal, error) {
	return tracker.Open(journalPath(cfg))
}

// loadArchiveCandidate reads a .deb file's ar envelope, parses its
// control member, and walks its extracted data member into a payload
// file-info list, producing the installer.Candidate Collect expects.
func loadArchiveCandidate(archivePath, scratchDir string) (*installer.Candidate, error) {
	members, err := archive.ReadDeb(archivePath)
	if err != nil {
		return nil, err
	}

	var controlTar, dataTar []byte

	for _, m := range members {
		switch m.Name {
		case archive.ControlMember:
			controlTar = m.Data
		case archive.DataMember:
			dataTar = m.Data
		}
	}

	if controlTar == nil || dataTar == nil {
		return nil, errors.New(errors.ErrTypeParse, archivePath+": missing control or data member")
	}

	controlDir := filepath.Join(scratchDir, "control")
	dataDir := filepath.Join(scratchDir, "data")

	controlTarPath := filepath.Join(scratchDir, archive.ControlMember)
	if err := files.CreateWrite(controlTarPath, string(controlTar)); err != nil {
		return nil, err
	}

	if err := archive.Extract(controlTarPath, controlDir); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeParse, "extracting control member of "+archivePath)
	}

	controlText, err := readControlFile(controlDir)
	if err != nil {
		return nil, err
	}

	cf, err := control.Parse(controlText)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeParse, "parsing control file of "+archivePath)
	}

	nameField, ok := cf.Get("Package")
	if !ok || nameField.Value == "" {
		return nil, errors.New(errors.ErrTypeParse, archivePath+": control file has no Package field")
	}

	dataTarPath := filepath.Join(scratchDir, archive.DataMember)
	if err := files.CreateWrite(dataTarPath, string(dataTar)); err != nil {
		return nil, err
	}

	if err := archive.Extract(dataTarPath, dataDir); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeParse, "extracting data member of "+archivePath)
	}

	conffiles, err := readConffilesList(controlDir)
	if err != nil {
		return nil, err
	}

	payload, err := files.NewWalker(dataDir, files.WalkOptions{BackupFiles: conffiles}).Walk()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIO, "walking data member of "+archivePath)
	}

	return &installer.Candidate{
		Name:        nameField.Value,
		ArchivePath: archivePath,
		Control:     cf,
		Payload:     payload,
	}, nil
}

func readControlFile(controlDir string) (string, error) {
	path := filepath.Join(controlDir, "control")

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeIO, "reading "+path)
	}

	return string(raw), nil
}

// loadInstalledPayload reconstructs name's payload file list from the
// md5sums/conffiles snapshot writeSnapshot left under <admindir>/<name>/,
// for use by the remover which never unpacks a fresh archive.
func loadInstalledPayload(cfg admin.Config, name string) ([]*files.FileInfo, error) {
	dir := cfg.PackageDir(name)

	conffiles, err := readConffilesList(dir)
	if err != nil {
		return nil, err
	}

	isConffile := make(map[string]bool, len(conffiles))
	for _, path := range conffiles {
		isConffile[strings.TrimPrefix(path, "/")] = true
	}

	raw, err := os.ReadFile(filepath.Join(dir, "md5sums"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, errors.ErrTypeIO, "reading md5sums for "+name)
	}

	var payload []*files.FileInfo

	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}

		fields := strings.SplitN(line, "  ", 2)
		if len(fields) != 2 {
			continue
		}

		entry := &files.FileInfo{
			Filename: fields[1],
			Type:     files.TypeRegular,
			MD5Sum:   fields[0],
		}

		if isConffile[entry.Filename] {
			entry.Type = files.TypeConfig
		}

		payload = append(payload, entry)
	}

	return payload, nil
}

// readConffilesList reads the optional conffiles member a control.tar
// may carry alongside its control file, one absolute path per line.
func readConffilesList(controlDir string) ([]string, error) {
	path := filepath.Join(controlDir, "conffiles")

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, errors.ErrTypeIO, "reading "+path)
	}

	var names []string

	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}

	return names, nil
}
