// Package platform provides filesystem ownership and reserved-name checks
// used while unpacking package payloads onto the target root.
package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/pkg/errors"

	"github.com/dpkgo/dpkgo/pkg/logger"
)

// Owner resolves the numeric uid/gid an archive entry's owner/group names
// should be applied as on the local system. Falls back to the numeric
// owner/group recorded in the archive itself when the name is unknown
// here, matching the target's /etc/passwd rather than the builder's.
type Owner struct {
	UID int
	GID int
}

// ResolveOwner looks up userName/groupName on the local system, falling
// back to fallbackUID/fallbackGID (the numeric values recorded in the
// archive entry) when the name cannot be resolved.
func ResolveOwner(userName, groupName string, fallbackUID, fallbackGID int) Owner {
	owner := Owner{UID: fallbackUID, GID: fallbackGID}

	if userName != "" {
		if u, err := user.Lookup(userName); err == nil {
			if uid, err := strconv.Atoi(u.Uid); err == nil {
				owner.UID = uid
			}
		} else {
			logger.Debug("owner name not found on target, using numeric uid",
				"user", userName, "uid", fallbackUID)
		}
	}

	if groupName != "" {
		if g, err := user.LookupGroup(groupName); err == nil {
			if gid, err := strconv.Atoi(g.Gid); err == nil {
				owner.GID = gid
			}
		} else {
			logger.Debug("group name not found on target, using numeric gid",
				"group", groupName, "gid", fallbackGID)
		}
	}

	return owner
}

// ApplyOwnership sets path's owner/group to the resolved uid/gid recorded
// in an unpacked archive entry.
func ApplyOwnership(path string, owner Owner) error {
	if err := os.Chown(path, owner.UID, owner.GID); err != nil {
		return errors.Wrapf(err, "chown %s to %d:%d", path, owner.UID, owner.GID)
	}

	return nil
}

// ApplyOwnershipRecursive recursively applies owner/group under path,
// logging and continuing past individual failures rather than aborting
// the whole unpack.
func ApplyOwnershipRecursive(path string, owner Owner) error {
	if err := syscall.Chown(path, owner.UID, owner.GID); err != nil {
		return errors.Wrapf(err, "chown root directory %s", path)
	}

	return filepath.Walk(path, func(walkPath string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if chownErr := syscall.Chown(walkPath, owner.UID, owner.GID); chownErr != nil {
			logger.Warn("failed to chown file during recursive ownership apply",
				"path", walkPath, "error", chownErr)
		}

		return nil
	})
}
