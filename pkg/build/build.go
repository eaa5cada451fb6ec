package build

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/archive"
	"github.com/dpkgo/dpkgo/pkg/control"
	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/installer"
	"github.com/dpkgo/dpkgo/pkg/tracker"
)

// Project describes one binary package build's inputs: a control
// stanza and the directory tree that becomes its data.tar, per spec.md
// §4.J's "project directory or a control.info file" interface.
type Project struct {
	ControlStanza string
	DataDir       string
}

// Result is the artifact Build produces.
type Result struct {
	OutputPath  string
	BuildNumber int
}

// Build assembles proj into outputDir/<name>_<version>_<arch>.deb,
// stamping the next build number from buildNumberFile into the
// package's X-Build-Number field. It never touches the target
// administrative database: only the archive codec and control writer
// run here, per spec.md §4.J's "never mutates the target database
// except via the Installer".
func Build(proj Project, outputDir, buildNumberFile string) (*Result, error) {
	cf, err := control.Parse(proj.ControlStanza)
	if err != nil {
		return nil, err
	}

	nameField, ok := cf.Get("Package")
	if !ok || nameField.Value == "" {
		return nil, errors.New(errors.ErrTypeInvalid, "control stanza is missing a Package field")
	}

	versionField, ok := cf.Get("Version")
	if !ok || versionField.Value == "" {
		return nil, errors.New(errors.ErrTypeInvalid, "control stanza is missing a Version field")
	}

	arch := "all"
	if archField, ok := cf.Get("Architecture"); ok && archField.Value != "" {
		arch = archField.Value
	}

	buildNumber, err := IncrementBuildNumber(buildNumberFile)
	if err != nil {
		return nil, err
	}

	cf.Set("X-Build-Number", strconv.Itoa(buildNumber))

	outputPath, err := assembleDeb(cf, proj.DataDir, outputDir, nameField.Value, versionField.Value, arch)
	if err != nil {
		return nil, err
	}

	return &Result{OutputPath: outputPath, BuildNumber: buildNumber}, nil
}

func assembleDeb(cf *control.File, dataDir, outputDir, name, version, arch string) (string, error) {
	scratch, err := os.MkdirTemp("", "dpkgo-build-")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeIO, "creating build scratch area")
	}

	defer os.RemoveAll(scratch)

	controlDir := filepath.Join(scratch, "control")

	if err := os.MkdirAll(controlDir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeIO, "creating control scratch directory")
	}

	if err := os.WriteFile(filepath.Join(controlDir, "control"), []byte(cf.Write()), 0o644); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeIO, "writing control file")
	}

	controlTar := filepath.Join(scratch, "control.tar.zst")
	if err := archive.CreateTarZst(controlDir, controlTar, false); err != nil {
		return "", err
	}

	dataTar := filepath.Join(scratch, "data.tar.zst")
	if err := archive.CreateTarZst(dataDir, dataTar, false); err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeIO, "creating output directory")
	}

	outputPath := filepath.Join(outputDir, name+"_"+version+"_"+arch+".deb")
	if err := archive.WriteDeb(outputPath, controlTar, dataTar); err != nil {
		return "", err
	}

	return outputPath, nil
}

// BuildFromSource installs srcCandidate (the source package archive)
// through a tracked transaction, runs buildTool (an external packaging
// tool invocation), then assembles proj's binary package. A failure
// inside the install's Run is rolled back by the Installer unless
// cfg.IsForced("no-force-rollback"). Once Run succeeds its journal is
// committed, so a later failure of buildTool or Build is not rolled
// back and leaves the installed source package in place.
func BuildFromSource(
	ctx context.Context,
	cfg admin.Config,
	mgr *admin.Manager,
	target installer.Target,
	journal *tracker.Journal,
	srcCandidate *installer.Candidate,
	buildTool func(ctx context.Context) error,
	proj Project,
	outputDir, buildNumberFile string,
) (*Result, error) {
	in := installer.New(cfg, mgr, target, journal)
	in.Collect(srcCandidate, installer.InstallExplicit)

	if err := in.ValidateAll(); err != nil {
		return nil, err
	}

	if err := in.PreConfigure(ctx); err != nil {
		return nil, err
	}

	if err := in.Run(ctx); err != nil {
		return nil, err
	}

	if buildTool != nil {
		if err := buildTool(ctx); err != nil {
			return nil, err
		}
	}

	return Build(proj, outputDir, buildNumberFile)
}
