package admin

import (
	"testing"

	"github.com/dpkgo/dpkgo/pkg/context"
)

func TestAddSelfAndIsSelf(t *testing.T) {
	mgr := NewManager(Config{AdminDir: t.TempDir()}, &context.InterruptFlag{})

	if mgr.IsSelf("dpkgo") {
		t.Fatal("expected IsSelf false before AddSelf")
	}

	mgr.AddSelf("dpkgo")

	if !mgr.IsSelf("dpkgo") {
		t.Fatal("expected IsSelf true after AddSelf")
	}

	if mgr.IsSelf("other-package") {
		t.Fatal("expected IsSelf false for a different package name")
	}
}
