package remover

import (
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/errors"
)

// checkRemovable implements the hold and Essential policy checks
// spec.md §4.G carries over from the installer: a held package
// cannot be altered, and an Essential package requires
// force-remove-essential.
func checkRemovable(cfg admin.Config, mgr *admin.Manager, name string) error {
	if status, err := mgr.GetField(name, "X-Selection"); err == nil && status == "hold" {
		if !cfg.IsForced("force-hold") {
			return errors.New(errors.ErrTypeCompatibility, name+" is held and cannot be removed")
		}
	}

	if essential, err := mgr.GetField(name, "Essential"); err == nil && essential == "yes" {
		if !cfg.IsForced("force-remove-essential") {
			return errors.New(errors.ErrTypeCompatibility, name+" is essential, refusing to remove")
		}
	}

	return nil
}

// backupAndDeleteFiles copies every path in paths into a scratch area
// under adminDir (so a failed remove can be rolled back via
// RestoreDisplacedFiles-style restoration), then deletes the originals.
func backupAndDeleteFiles(adminDir, instDir, backupID string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	root := backupRoot(adminDir, backupID)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating removal backup scratch area")
	}

	for _, relPath := range paths {
		src := filepath.Join(instDir, relPath)

		if _, err := os.Stat(src); err != nil {
			continue
		}

		dst := filepath.Join(root, relPath)

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "creating removal backup directory for "+relPath)
		}

		if err := cp.Copy(src, dst); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "backing up "+relPath+" before removal")
		}

		if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrTypeIO, "removing "+src)
		}
	}

	return nil
}

// restoreBackup copies every file under backupID's scratch area back
// onto instDir, the inverse of backupAndDeleteFiles run during rollback.
func restoreBackup(adminDir, instDir, backupID string) error {
	root := backupRoot(adminDir, backupID)

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return errors.Wrap(err, errors.ErrTypeIO, "reading removal backup scratch area")
	}

	if err := cp.Copy(root, instDir); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "restoring removed files from backup "+backupID)
	}

	return os.RemoveAll(root)
}

// backupRoot mirrors the installer's scratch-area layout so both
// subsystems share <admindir>/backups/<id> without colliding on IDs
// (installer ids are "<name>-<nanotime>", remover ids are
// "<name>-remove").
func backupRoot(adminDir, backupID string) string {
	return filepath.Join(adminDir, "backups", backupID)
}
