// Package tracker implements the transaction journal: an append-only
// log of completed steps that can be rolled back in reverse order if
// a later step fails, giving the installer and remover all-or-nothing
// semantics.
package tracker

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/dpkgo/dpkgo/pkg/logger"
)

// Command is one parsed journal line: a verb plus its positional
// arguments, carrying enough context (package name, archive path,
// previous version, backup-scratch id) for Inverse to be deterministic
// without consulting the original command line, per spec.md §4.H.
type Command struct {
	Verb string
	Args []string
}

// String renders cmd back to its journal-line text form.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Verb
	}

	return c.Verb + " " + strings.Join(c.Args, " ")
}

// parseLine splits a raw journal line into its Command.
func parseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.New("empty journal line")
	}

	return Command{Verb: fields[0], Args: fields[1:]}, nil
}

// Inverter executes the inverse of one journaled Command, invoked
// through the Manager and Installer/Remover primitives by the caller
// that owns those components. pkg/installer and pkg/remover implement
// this against their own unpack/configure/remove/deconfigure state.
type Inverter interface {
	Invert(cmd Command) error
}

// Journal is the append-only per-transaction log living at
// <admindir>/tracker.journal (spec.md §6.5).
type Journal struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	keepFile bool
}

// Open creates (or truncates) the journal file at path, ready for
// Track calls.
func Open(path string) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "opening transaction journal")
	}

	return &Journal{path: path, file: file}, nil
}

// Track appends line and flushes to disk immediately: spec.md §4.H
// requires writes to land after a step has completed and before the
// next one begins, so a crash never loses a completed step.
func (j *Journal) Track(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return
	}

	if _, err := j.file.WriteString(line + "\n"); err != nil {
		logger.Warn("failed to write transaction journal line", "line", line, "error", err)

		return
	}

	if err := j.file.Sync(); err != nil {
		logger.Warn("failed to sync transaction journal", "error", err)
	}
}

// KeepFile overrides the journal's auto-delete-on-Commit behavior,
// letting a caller inspect the journal afterward or re-run it later
// via --rollback <file>.
func (j *Journal) KeepFile(keep bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.keepFile = keep
}

// Commit closes the journal and deletes it from disk, unless KeepFile
// was set.
func (j *Journal) Commit() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return errors.Wrap(err, "closing transaction journal")
		}

		j.file = nil
	}

	if j.keepFile {
		return nil
	}

	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing transaction journal")
	}

	return nil
}

// Rollback reads the journal's lines in reverse and applies inverter's
// inverse action for each. A failure on one line is logged but does
// not stop rollback of the remaining lines, per spec.md §4.H.
func (j *Journal) Rollback(inverter Inverter) error {
	j.mu.Lock()

	if j.file != nil {
		_ = j.file.Close()
		j.file = nil
	}

	path := j.path

	j.mu.Unlock()

	lines, err := readLines(path)
	if err != nil {
		return err
	}

	for i := len(lines) - 1; i >= 0; i-- {
		cmd, err := parseLine(lines[i])
		if err != nil {
			logger.Warn("skipping malformed journal line during rollback", "line", lines[i], "error", err)

			continue
		}

		if err := inverter.Invert(cmd); err != nil {
			logger.Warn("rollback step failed, continuing with remaining journal lines",
				"command", cmd.String(), "error", errors.Wrap(err, "inverting journal command"))
		}
	}

	return nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "reading transaction journal")
	}

	defer file.Close()

	var lines []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning transaction journal")
	}

	return lines, nil
}

// ReplayFrom reopens a previously-kept journal file at path purely for
// rollback, the --rollback <file> administrative entry point.
func ReplayFrom(path string) *Journal {
	return &Journal{path: path, keepFile: true}
}
