package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"
)

func TestResolveOwner_FallsBackToNumeric(t *testing.T) {
	owner := ResolveOwner("no-such-user-xyz", "no-such-group-xyz", 1000, 1000)

	if owner.UID != 1000 {
		t.Errorf("expected fallback UID 1000, got %d", owner.UID)
	}

	if owner.GID != 1000 {
		t.Errorf("expected fallback GID 1000, got %d", owner.GID)
	}
}

func TestResolveOwner_ResolvesCurrentUser(t *testing.T) {
	current, err := user.Current()
	if err != nil {
		t.Skipf("cannot resolve current user in this environment: %v", err)
	}

	owner := ResolveOwner(current.Username, "", -1, -1)
	if owner.UID == -1 {
		t.Errorf("expected ResolveOwner to resolve %q to a uid", current.Username)
	}
}

func TestApplyOwnership_NoOp(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "test.txt")

	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("failed to stat test file: %v", err)
	}

	owner := Owner{UID: os.Getuid(), GID: os.Getgid()}
	_ = info

	if err := ApplyOwnership(testFile, owner); err != nil {
		t.Errorf("ApplyOwnership to the current uid/gid should not error: %v", err)
	}
}

func TestApplyOwnershipRecursive_NoOp(t *testing.T) {
	tempDir := t.TempDir()
	subDir := filepath.Join(tempDir, "subdir")
	testFile := filepath.Join(subDir, "test.txt")

	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}

	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	owner := Owner{UID: os.Getuid(), GID: os.Getgid()}

	if err := ApplyOwnershipRecursive(tempDir, owner); err != nil {
		t.Errorf("ApplyOwnershipRecursive to the current uid/gid should not error: %v", err)
	}
}
