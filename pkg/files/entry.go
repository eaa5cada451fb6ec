// Package files provides unified file system operations for building and
// unpacking package payloads.
package files

import (
	"os"
	"time"
)

// Type enumerates the file-type vocabulary a package payload entry can
// carry, matching a POSIX ustar typeflag plus the config-file distinction
// dpkgo tracks in its own metadata.
type Type string

const (
	TypeRegular      Type = "regular"
	TypeHardLink     Type = "hard-link"
	TypeSymlink      Type = "symlink"
	TypeCharSpecial  Type = "char-special"
	TypeBlockSpecial Type = "block-special"
	TypeDirectory    Type = "directory"
	TypeFIFO         Type = "fifo"
	TypeContinuous   Type = "continuous"
	// TypeConfig marks a payload entry as a conffile: installed content
	// is preserved across upgrades when the admin has modified it.
	TypeConfig Type = "config"
	// TypeConfigNoReplace marks a conffile that is never overwritten
	// once it exists on the target, even on first install.
	TypeConfigNoReplace Type = "config-noreplace"
)

// FileInfo describes one entry of a package's payload: its path, type,
// permissions, owner, and the metadata needed to apply ownership and
// detect conffile changes on unpack (spec.md §4.A).
type FileInfo struct {
	Filename    string    // Destination path relative to the install root
	Type        Type      // File type
	Mode        os.FileMode
	UID         int
	GID         int
	User        string
	Group       string
	Size        int64
	ModTime     time.Time
	LinkTarget  string // Target path for symlinks and hard links
	DeviceMajor uint32 // Set for char-special/block-special entries
	DeviceMinor uint32
	MD5Sum      string // Hex digest, as recorded in md5sums
}

// IsRegularFile returns true if this entry represents a regular file.
func (f *FileInfo) IsRegularFile() bool {
	return f.Type == TypeRegular
}

// IsDirectory returns true if this entry represents a directory.
func (f *FileInfo) IsDirectory() bool {
	return f.Type == TypeDirectory
}

// IsSymlink returns true if this entry represents a symbolic link.
func (f *FileInfo) IsSymlink() bool {
	return f.Type == TypeSymlink
}

// IsConfigFile returns true if this entry represents a configuration file
// tracked across upgrades.
func (f *FileInfo) IsConfigFile() bool {
	return f.Type == TypeConfig || f.Type == TypeConfigNoReplace
}
