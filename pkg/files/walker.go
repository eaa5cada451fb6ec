// Package files provides unified file system operations for building and
// unpacking package payloads.
package files

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dpkgo/dpkgo/pkg/crypto"
	"github.com/dpkgo/dpkgo/pkg/logger"
)

// WalkOptions configures the behavior of directory walking.
type WalkOptions struct {
	SkipDotFiles bool     // Skip files starting with '.'
	BackupFiles  []string // Conffiles, matched against each entry's destination path
	SkipPatterns []string // File patterns to skip
}

// Walker walks a staged package tree (the data.tar payload root) and
// produces the FileInfo records that become data.tar entries and md5sums
// lines.
type Walker struct {
	BaseDir string
	Options WalkOptions
}

// NewWalker creates a new filesystem walker rooted at baseDir.
func NewWalker(baseDir string, options WalkOptions) *Walker {
	return &Walker{
		BaseDir: baseDir,
		Options: options,
	}
}

// Walk traverses the directory and returns payload entries in the order
// filepath.WalkDir visits them.
func (w *Walker) Walk() ([]*FileInfo, error) {
	var entries []*FileInfo

	err := filepath.WalkDir(w.BaseDir, func(path string, dirEntry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == w.BaseDir {
			return nil
		}

		if w.Options.SkipDotFiles {
			filename := filepath.Base(path)
			if filename != "" && filename[0] == '.' {
				return nil
			}
		}

		if w.shouldSkipFile(filepath.Base(path)) {
			return nil
		}

		entry, err := w.createEntry(path, dirEntry)
		if err != nil {
			return err
		}

		if entry.IsDirectory() && w.isEmptyDirectory(path, dirEntry) {
			// Only an empty directory needs an explicit payload entry; a
			// populated one is implied by its children.
			entries = append(entries, entry)
		} else if !entry.IsDirectory() {
			entries = append(entries, entry)
		}

		return nil
	})

	return entries, err
}

// createEntry builds a FileInfo for one path found under BaseDir.
func (w *Walker) createEntry(path string, dirEntry fs.DirEntry) (*FileInfo, error) {
	fileInfo, err := dirEntry.Info()
	if err != nil {
		return nil, err
	}

	relPath, err := filepath.Rel(w.BaseDir, path)
	if err != nil {
		return nil, err
	}

	destination := "/" + strings.TrimPrefix(relPath, "/")

	entry := &FileInfo{
		Filename: destination,
		Mode:     fileInfo.Mode(),
		Size:     fileInfo.Size(),
		ModTime:  fileInfo.ModTime(),
	}

	isConffile := w.isBackupFile(destination)

	switch {
	case fileInfo.Mode()&os.ModeSymlink != 0:
		entry.Type = TypeSymlink

		linkTarget, err := os.Readlink(path)
		if err != nil {
			return nil, err
		}

		entry.LinkTarget = linkTarget

	case fileInfo.IsDir():
		entry.Type = TypeDirectory

	case isConffile:
		entry.Type = TypeConfigNoReplace

		md5Hex, err := crypto.CalculateMD5Hex(path)
		if err != nil {
			return nil, err
		}

		entry.MD5Sum = md5Hex

	default:
		entry.Type = TypeRegular

		if fileInfo.Mode().IsRegular() {
			md5Hex, err := crypto.CalculateMD5Hex(path)
			if err != nil {
				return nil, err
			}

			entry.MD5Sum = md5Hex
		}
	}

	return entry, nil
}

// shouldSkipFile checks if a file should be skipped based on patterns.
func (w *Walker) shouldSkipFile(fileName string) bool {
	for _, pattern := range w.Options.SkipPatterns {
		if matched, _ := filepath.Match(pattern, fileName); matched {
			return true
		}
	}

	return false
}

// isBackupFile reports whether path is listed as a conffile.
func (w *Walker) isBackupFile(path string) bool {
	normalizedPath := path
	if !strings.HasPrefix(normalizedPath, "/") {
		normalizedPath = "/" + normalizedPath
	}

	for _, backupFile := range w.Options.BackupFiles {
		normalizedBackup := backupFile
		if !strings.HasPrefix(normalizedBackup, "/") {
			normalizedBackup = "/" + normalizedBackup
		}

		if normalizedPath == normalizedBackup {
			return true
		}
	}

	return false
}

// isEmptyDirectory checks if a directory is empty.
func (w *Walker) isEmptyDirectory(path string, dirEntry fs.DirEntry) bool {
	if !dirEntry.IsDir() {
		return false
	}

	entries, err := os.ReadDir(filepath.Clean(path))
	if err != nil {
		return false
	}

	return len(entries) == 0
}

// CalculateDataHash computes a SHA256 digest over a staged payload tree's
// paths, modes, and content, the form recorded in a repository index's
// SHA256 field for a package's extracted data (spec.md §8).
func CalculateDataHash(baseDir string, skipPatterns []string) (string, error) {
	hasher := sha256.New()

	err := filepath.WalkDir(baseDir, func(path string, dirEntry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == baseDir {
			return nil
		}

		fileName := filepath.Base(path)
		for _, pattern := range skipPatterns {
			if matched, _ := filepath.Match(pattern, fileName); matched {
				return nil
			}
		}

		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}

		fileInfo, err := dirEntry.Info()
		if err != nil {
			return err
		}

		hasher.Write([]byte(relPath))
		hasher.Write([]byte{byte(fileInfo.Mode())})

		if fileInfo.Mode().IsRegular() {
			file, err := os.Open(filepath.Clean(path))
			if err != nil {
				return err
			}

			defer func() {
				if closeErr := file.Close(); closeErr != nil {
					logger.Warn("failed to close file during data hash calculation",
						"path", path,
						"error", closeErr)
				}
			}()

			if _, err := io.Copy(hasher, file); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
