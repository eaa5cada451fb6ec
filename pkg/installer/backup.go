package installer

import (
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

// backupRoot returns the scratch area a transaction's displaced-file
// backups live under, <admindir>/backups/<id>.
func backupRoot(adminDir, backupID string) string {
	return filepath.Join(adminDir, "backups", backupID)
}

// BackupDisplacedFiles copies every path in displaced (already present
// on the target root, about to be overwritten by a candidate's
// unpack) into the scratch area under adminDir named by backupID, the
// id rollback passes to RestoreDisplacedFiles, per spec.md §4.F step (a).
func BackupDisplacedFiles(adminDir, instDir, backupID string, displaced []string) error {
	if len(displaced) == 0 {
		return nil
	}

	root := backupRoot(adminDir, backupID)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating backup scratch area")
	}

	for _, relPath := range displaced {
		src := filepath.Join(instDir, relPath)
		dst := filepath.Join(root, relPath)

		if _, err := os.Stat(src); err != nil {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "creating backup directory for "+relPath)
		}

		if err := cp.Copy(src, dst); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "backing up displaced file "+relPath)
		}
	}

	return nil
}

// RestoreDisplacedFiles copies every file under the backupID scratch
// area back onto instDir, the inverse of BackupDisplacedFiles run
// during rollback.
func RestoreDisplacedFiles(adminDir, instDir, backupID string) error {
	root := backupRoot(adminDir, backupID)

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return errors.Wrap(err, errors.ErrTypeIO, "reading backup scratch area")
	}

	if err := cp.Copy(root, instDir); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "restoring displaced files from backup "+backupID)
	}

	return os.RemoveAll(root)
}

// DiscardBackup deletes a transaction's scratch area once it is no
// longer needed (commit succeeded, so the displaced originals are
// gone for good).
func DiscardBackup(adminDir, backupID string) error {
	if backupID == "" {
		return nil
	}

	if err := os.RemoveAll(backupRoot(adminDir, backupID)); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "discarding backup scratch area")
	}

	return nil
}
