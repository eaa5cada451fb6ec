package tracker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTrackAndCommitDeletesJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	j.Track(NewUnpackLine("foo", "1.0", "backup-1"))
	j.Track(NewConfigureLine("foo"))

	if err := j.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected journal file removed after Commit")
	}
}

func TestCommitWithKeepFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	j.KeepFile(true)
	j.Track(NewUnpackLine("foo", "1.0", ""))

	if err := j.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected journal file kept after Commit, got: %v", err)
	}
}

type recordingInverter struct {
	inverted []Command
	failOn   string
}

func (r *recordingInverter) Invert(cmd Command) error {
	r.inverted = append(r.inverted, cmd)

	if cmd.Verb == r.failOn {
		return errInvertFailed
	}

	return nil
}

var errInvertFailed = &invertError{}

type invertError struct{}

func (e *invertError) Error() string { return "simulated inversion failure" }

func TestRollbackReversesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	j.Track(NewUnpackLine("foo", "1.0", "backup-1"))
	j.Track(NewConfigureLine("foo"))

	inv := &recordingInverter{}

	if err := j.Rollback(inv); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if len(inv.inverted) != 2 {
		t.Fatalf("expected 2 inverted commands, got %d", len(inv.inverted))
	}

	if inv.inverted[0].Verb != VerbConfigure || inv.inverted[1].Verb != VerbUnpack {
		t.Fatalf("expected reverse order, got %+v", inv.inverted)
	}
}

func TestRollbackContinuesPastFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.journal")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	j.Track(NewUnpackLine("foo", "1.0", "backup-1"))
	j.Track(NewConfigureLine("foo"))
	j.Track(NewUnpackLine("bar", "2.0", "backup-2"))

	inv := &recordingInverter{failOn: VerbConfigure}

	if err := j.Rollback(inv); err != nil {
		t.Fatalf("Rollback should not abort on a failing step: %v", err)
	}

	if len(inv.inverted) != 3 {
		t.Fatalf("expected rollback to process all 3 lines despite one failure, got %d", len(inv.inverted))
	}
}

func TestRollbackOnMissingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.journal")

	j := ReplayFrom(path)
	inv := &recordingInverter{}

	if err := j.Rollback(inv); err != nil {
		t.Fatalf("Rollback on a missing journal should be a no-op, got: %v", err)
	}

	if len(inv.inverted) != 0 {
		t.Fatalf("expected no inversions for a missing journal, got %+v", inv.inverted)
	}
}

func TestCommandStringRoundTrip(t *testing.T) {
	line := NewUnpackLine("foo", "1.0", "")

	cmd, err := parseLine(line)
	if err != nil {
		t.Fatalf("parseLine failed: %v", err)
	}

	if cmd.Verb != VerbUnpack || len(cmd.Args) != 3 || cmd.Args[2] != "-" {
		t.Fatalf("unexpected parsed command: %+v", cmd)
	}
}
