// Package build implements the build subsystem spec.md §4.J describes:
// assembling a project directory into a .deb archive by driving the
// archive codec and control-field writer, and, for source packages,
// installing the source through a tracked transaction exactly like any
// other install.
package build

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

// LoadBuildNumber reads the integer recorded at path, returning 0 if
// the file does not yet exist, mirroring load_build_number(quiet=true).
func LoadBuildNumber(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}

		return 0, errors.Wrap(err, errors.ErrTypeIO, "reading build number file "+path)
	}

	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrTypeParse, "parsing build number in "+path)
	}

	return n, nil
}

// IncrementBuildNumber atomically loads, increments, and persists the
// build number at path, returning the new value. The write goes
// through a temp file and rename so a crash mid-write can never leave
// a torn number on disk.
func IncrementBuildNumber(path string) (int, error) {
	current, err := LoadBuildNumber(path)
	if err != nil {
		return 0, err
	}

	next := current + 1

	if err := writeBuildNumberAtomic(path, next); err != nil {
		return 0, err
	}

	return next, nil
}

func writeBuildNumberAtomic(path string, n int) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating build number directory")
	}

	tmp, err := os.CreateTemp(dir, ".build-number-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating temp build number file")
	}

	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(strconv.Itoa(n) + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return errors.Wrap(err, errors.ErrTypeIO, "writing build number")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return errors.Wrap(err, errors.ErrTypeIO, "closing temp build number file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)

		return errors.Wrap(err, errors.ErrTypeIO, "renaming build number file")
	}

	return nil
}
