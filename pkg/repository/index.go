package repository

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dpkgo/dpkgo/pkg/archive"
	"github.com/dpkgo/dpkgo/pkg/control"
	"github.com/dpkgo/dpkgo/pkg/errors"
)

// IndexEntry is one archive's file-info and parsed control fields, as
// create_index assembles them per spec.md §4.I.
type IndexEntry struct {
	Path    string
	Size    int64
	ModTime time.Time
	Control *control.File
}

// Name returns the entry's Package control field, or "" if unset.
func (e IndexEntry) Name() string {
	field, ok := e.Control.Get("Package")
	if !ok {
		return ""
	}

	return field.Value
}

// Version returns the entry's Version control field, or "" if unset.
func (e IndexEntry) Version() string {
	field, ok := e.Control.Get("Version")
	if !ok {
		return ""
	}

	return field.Value
}

// CreateIndex walks dirs (descending into subdirectories when
// recursive is set) and assembles an index of every .deb archive
// found: its file-info and full parsed control fields. An empty
// result is an error, per spec.md §4.I.
func CreateIndex(dirs []string, recursive bool) ([]IndexEntry, error) {
	var entries []IndexEntry

	for _, dir := range dirs {
		paths, err := findDebs(dir, recursive)
		if err != nil {
			return nil, err
		}

		for _, path := range paths {
			entry, err := readIndexEntry(path)
			if err != nil {
				return nil, err
			}

			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		return nil, errors.New(errors.ErrTypeInvalid, "no .deb archives found to index")
	}

	return entries, nil
}

func findDebs(dir string, recursive bool) ([]string, error) {
	var paths []string

	walkFn := func(path string, info os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.HasSuffix(path, ".deb") {
			paths = append(paths, path)
		}

		return nil
	}

	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIO, "walking repository directory "+dir)
	}

	return paths, nil
}

func readIndexEntry(path string) (IndexEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return IndexEntry{}, errors.Wrap(err, errors.ErrTypeIO, "stat "+path)
	}

	members, err := archive.ReadDeb(path)
	if err != nil {
		return IndexEntry{}, err
	}

	scratch, err := os.MkdirTemp("", "dpkgo-index-")
	if err != nil {
		return IndexEntry{}, errors.Wrap(err, errors.ErrTypeIO, "creating scratch directory")
	}

	defer os.RemoveAll(scratch)

	controlTar, err := extractMember(members, archive.ControlMember, scratch)
	if err != nil {
		return IndexEntry{}, err
	}

	controlDir := filepath.Join(scratch, "control")
	if err := archive.Extract(controlTar, controlDir); err != nil {
		return IndexEntry{}, err
	}

	raw, err := os.ReadFile(filepath.Join(controlDir, "control"))
	if err != nil {
		return IndexEntry{}, errors.Wrap(err, errors.ErrTypeIO, "reading control from "+path)
	}

	cf, err := control.Parse(string(raw))
	if err != nil {
		return IndexEntry{}, err
	}

	return IndexEntry{Path: path, Size: info.Size(), ModTime: info.ModTime(), Control: cf}, nil
}

func extractMember(members []archive.DebMember, name, scratch string) (string, error) {
	for _, member := range members {
		if member.Name != name {
			continue
		}

		path := filepath.Join(scratch, name)
		if err := os.WriteFile(path, member.Data, 0o644); err != nil {
			return "", errors.Wrap(err, errors.ErrTypeIO, "writing "+name)
		}

		return path, nil
	}

	return "", errors.New(errors.ErrTypeInvalid, "archive missing "+name+" member")
}

// WriteIndex renders entries' control stanzas into a scratch directory
// named by package and version, then tars and gzips that directory to
// out: a portable index.tar.gz a client can fetch instead of probing
// every archive individually.
func WriteIndex(entries []IndexEntry, out string) error {
	scratch, err := os.MkdirTemp("", "dpkgo-write-index-")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating scratch directory")
	}

	defer os.RemoveAll(scratch)

	for _, entry := range entries {
		name := entry.Name() + "_" + entry.Version() + ".control"

		if err := os.WriteFile(filepath.Join(scratch, name), []byte(entry.Control.Write()), 0o644); err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "writing index entry for "+entry.Name())
		}
	}

	return archive.CreateTarGz(scratch, out, false)
}
