package installer

import (
	"testing"

	"github.com/dpkgo/dpkgo/pkg/control"
)

func TestCandidateVersion(t *testing.T) {
	cand := &Candidate{Name: "foo"}

	if v := cand.Version(); v != "" {
		t.Fatalf("expected empty version with no control file, got %q", v)
	}

	cf, err := control.Parse("Package: foo\nVersion: 1.2.3\n")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cand.Control = cf

	if v := cand.Version(); v != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", v)
	}
}

func TestCandidateReject(t *testing.T) {
	cand := &Candidate{Name: "foo", State: StateValidated}

	cand.Reject("architecture mismatch")

	if cand.State != StateRejected {
		t.Fatalf("expected StateRejected, got %v", cand.State)
	}

	if cand.RejectReason != "architecture mismatch" {
		t.Fatalf("unexpected reject reason: %q", cand.RejectReason)
	}
}
