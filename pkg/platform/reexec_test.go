package platform

import "testing"

func TestReExecRunsCurrentExecutable(t *testing.T) {
	// The test binary itself accepts -test.run to select no tests, so a
	// re-exec of it should succeed and return immediately.
	if err := ReExec("-test.run=^$"); err != nil {
		t.Fatalf("ReExec failed: %v", err)
	}
}
