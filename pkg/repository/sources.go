// Package repository implements the index/update/upgrade/sources
// operations spec.md §4.I describes for a directory of .deb archives.
package repository

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

// Source is one parsed line of sources.list: `<type> [key=value …]
// <uri> <distribution> <component>…`, per spec.md §4.I.
type Source struct {
	Type         string
	Options      map[string]string
	URI          string
	Distribution string
	Components   []string
}

// String renders src back to its one-line sources.list form.
func (s Source) String() string {
	var b strings.Builder

	b.WriteString(s.Type)

	for _, key := range sortedKeys(s.Options) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(s.Options[key])
	}

	b.WriteByte(' ')
	b.WriteString(s.URI)
	b.WriteByte(' ')
	b.WriteString(s.Distribution)

	for _, component := range s.Components {
		b.WriteByte(' ')
		b.WriteString(component)
	}

	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// sourcesListPath returns <admindir>/core/sources.list.
func sourcesListPath(adminDir string) string {
	return filepath.Join(adminDir, "core", "sources.list")
}

// ReadSources parses <admindir>/core/sources.list. A missing file
// yields an empty, non-error result: no sources configured yet.
func ReadSources(adminDir string) ([]Source, error) {
	path := sourcesListPath(adminDir)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, errors.ErrTypeIO, "reading "+path)
	}

	var sources []Source

	for lineNo, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		src, err := parseSourceLine(line)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeParse,
				"sources.list:"+strconv.Itoa(lineNo+1))
		}

		sources = append(sources, src)
	}

	return sources, nil
}

// WriteSources persists sources, one per line, to
// <admindir>/core/sources.list, creating the core/ directory if needed.
func WriteSources(adminDir string, sources []Source) error {
	path := sourcesListPath(adminDir)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating core directory")
	}

	var b strings.Builder

	for _, src := range sources {
		b.WriteString(src.String())
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing "+path)
	}

	return nil
}

// AddSource validates and appends src to <admindir>/core/sources.list.
func AddSource(adminDir string, src Source) error {
	if err := validateSource(src); err != nil {
		return err
	}

	sources, err := ReadSources(adminDir)
	if err != nil {
		return err
	}

	sources = append(sources, src)

	return WriteSources(adminDir, sources)
}

// RemoveSources deletes the sources at the given one-based line
// numbers. Per spec.md §4.I, indices are sorted ascending for
// validation but deleted descending so earlier indices stay valid.
func RemoveSources(adminDir string, indices []int) error {
	sources, err := ReadSources(adminDir)
	if err != nil {
		return err
	}

	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	for _, idx := range sorted {
		if idx < 1 || idx > len(sources) {
			return errors.New(errors.ErrTypeParameter, "no source at line "+strconv.Itoa(idx))
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	for _, idx := range sorted {
		sources = append(sources[:idx-1], sources[idx:]...)
	}

	return WriteSources(adminDir, sources)
}

func validateSource(src Source) error {
	if src.Type == "" {
		return errors.New(errors.ErrTypeParameter, "source type is required")
	}

	if src.URI == "" {
		return errors.New(errors.ErrTypeParameter, "source uri is required")
	}

	if src.Distribution == "" {
		return errors.New(errors.ErrTypeParameter, "source distribution is required")
	}

	return nil
}

func parseSourceLine(line string) (Source, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Source{}, errors.New(errors.ErrTypeParse, "expected type, uri and distribution")
	}

	src := Source{Type: fields[0], Options: make(map[string]string)}

	rest := fields[1:]
	for len(rest) > 0 && strings.Contains(rest[0], "=") {
		kv := strings.SplitN(rest[0], "=", 2)
		src.Options[kv[0]] = kv[1]
		rest = rest[1:]
	}

	if len(rest) < 2 {
		return Source{}, errors.New(errors.ErrTypeParse, "missing uri/distribution after options")
	}

	src.URI = rest[0]
	src.Distribution = rest[1]
	src.Components = rest[2:]

	return src, nil
}
