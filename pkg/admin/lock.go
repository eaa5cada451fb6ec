package admin

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

// lockFileName is the name of the database lock under <admindir>/,
// whose presence alone spec.md §4.E says holds the lock; per
// SPEC_FULL.md's supplemented feature its content additionally
// records "<pid> <status>\n" for diagnostics on a locked error.
const lockFileName = "lock"

// LockHolder describes who currently holds the admin database lock,
// parsed back from the lock file's content.
type LockHolder struct {
	PID    int
	Status string
}

func (c Config) lockPath() string {
	return filepath.Join(c.AdminDir, lockFileName)
}

// Lock creates the lock file atomically with this process's pid and
// status, failing with ErrTypeLocked if the file already exists.
func Lock(cfg Config, status string) error {
	path := cfg.lockPath()

	if err := os.MkdirAll(cfg.AdminDir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating admin directory")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			holder, readErr := ReadLock(cfg)
			if readErr == nil {
				return errors.New(errors.ErrTypeLocked,
					fmt.Sprintf("admin database locked by pid %d (%s)", holder.PID, holder.Status))
			}

			return errors.New(errors.ErrTypeLocked, "admin database locked")
		}

		return errors.Wrap(err, errors.ErrTypeIO, "creating lock file")
	}

	defer file.Close()

	_, err = fmt.Fprintf(file, "%d %s\n", os.Getpid(), status)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing lock file")
	}

	return nil
}

// Unlock removes the lock file, the normal end-of-transaction release.
func Unlock(cfg Config) error {
	if err := os.Remove(cfg.lockPath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrTypeIO, "removing lock file")
	}

	return nil
}

// RemoveLock is the explicit administrative escape hatch for clearing
// a stale lock left by a crashed process, distinct from the normal
// Unlock release a live Manager performs (spec.md §4.E,
// SUPPLEMENTED FEATURES).
func RemoveLock(cfg Config) error {
	return Unlock(cfg)
}

// ReadLock parses the current lock file's "<pid> <status>" content, if
// a lock is held.
func ReadLock(cfg Config) (LockHolder, error) {
	data, err := os.ReadFile(cfg.lockPath())
	if err != nil {
		return LockHolder{}, errors.Wrap(err, errors.ErrTypeIO, "reading lock file")
	}

	fields := strings.SplitN(strings.TrimSpace(string(data)), " ", 2)

	holder := LockHolder{}

	pid, convErr := strconv.Atoi(fields[0])
	if convErr != nil {
		return LockHolder{}, errors.New(errors.ErrTypeParse, "malformed lock file pid")
	}

	holder.PID = pid

	if len(fields) > 1 {
		holder.Status = fields[1]
	}

	return holder, nil
}

// IsLocked reports whether the admin database is currently locked.
func IsLocked(cfg Config) bool {
	_, err := os.Stat(cfg.lockPath())

	return err == nil
}
