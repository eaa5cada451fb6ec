package repository

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

// UpdateStatus is one of the states an UpdateEntry's Status field
// takes, per spec.md §4.I.
type UpdateStatus string

const (
	StatusUnknown UpdateStatus = "unknown"
	StatusOK      UpdateStatus = "ok"
	StatusFailed  UpdateStatus = "failed"
)

// UpdateEntry records one source's fetch history across repeated
// update() runs: when it was first attempted, its current status,
// and the timestamps of its most recent success and failure.
type UpdateEntry struct {
	Source       string
	Status       UpdateStatus
	FirstTry     time.Time
	FirstSuccess time.Time
	LastSuccess  time.Time
	LastFailure  time.Time
}

// Fetcher retrieves src's index data; network access is an external
// collaborator the core only orchestrates the state machine around,
// per spec.md §4.I.
type Fetcher func(ctx context.Context, src Source) error

func updateStatusPath(adminDir string) string {
	return filepath.Join(adminDir, "core", "update-status")
}

// Update iterates sources from sources.list, invoking fetch for each
// and recording an UpdateEntry with its resulting status, then
// persists the updated entries to <admindir>/core/update-status.
func Update(ctx context.Context, adminDir string, fetch Fetcher) ([]UpdateEntry, error) {
	sources, err := ReadSources(adminDir)
	if err != nil {
		return nil, err
	}

	previous, err := readUpdateEntries(adminDir)
	if err != nil {
		return nil, err
	}

	byURI := make(map[string]UpdateEntry, len(previous))
	for _, entry := range previous {
		byURI[entry.Source] = entry
	}

	now := time.Now()

	entries := make([]UpdateEntry, 0, len(sources))

	for _, src := range sources {
		entry := byURI[src.URI]
		entry.Source = src.URI

		if entry.FirstTry.IsZero() {
			entry.FirstTry = now
		}

		if fetchErr := fetch(ctx, src); fetchErr != nil {
			entry.Status = StatusFailed
			entry.LastFailure = now
		} else {
			entry.Status = StatusOK
			entry.LastSuccess = now

			if entry.FirstSuccess.IsZero() {
				entry.FirstSuccess = now
			}
		}

		entries = append(entries, entry)
	}

	if err := writeUpdateEntries(adminDir, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func readUpdateEntries(adminDir string) ([]UpdateEntry, error) {
	path := updateStatusPath(adminDir)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, errors.ErrTypeIO, "reading "+path)
	}

	var entries []UpdateEntry

	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}

		entry, err := parseUpdateLine(line)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func writeUpdateEntries(adminDir string, entries []UpdateEntry) error {
	path := updateStatusPath(adminDir)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating core directory")
	}

	var b strings.Builder

	for _, entry := range entries {
		b.WriteString(entry.Source)
		b.WriteByte('\t')
		b.WriteString(string(entry.Status))
		b.WriteByte('\t')
		b.WriteString(formatTime(entry.FirstTry))
		b.WriteByte('\t')
		b.WriteString(formatTime(entry.FirstSuccess))
		b.WriteByte('\t')
		b.WriteString(formatTime(entry.LastSuccess))
		b.WriteByte('\t')
		b.WriteString(formatTime(entry.LastFailure))
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing "+path)
	}

	return nil
}

func parseUpdateLine(line string) (UpdateEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 6 {
		return UpdateEntry{}, errors.New(errors.ErrTypeParse, "malformed update-status line")
	}

	return UpdateEntry{
		Source:       fields[0],
		Status:       UpdateStatus(fields[1]),
		FirstTry:     parseTime(fields[2]),
		FirstSuccess: parseTime(fields[3]),
		LastSuccess:  parseTime(fields[4]),
		LastFailure:  parseTime(fields[5]),
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return strconv.FormatInt(t.Unix(), 10)
}

func parseTime(raw string) time.Time {
	if raw == "-" {
		return time.Time{}
	}

	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(sec, 0)
}
