package admin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dpkgo/dpkgo/pkg/context"
)

func newTestManager(t *testing.T) (*Manager, Config) {
	t.Helper()

	cfg := Config{AdminDir: t.TempDir()}

	return NewManager(cfg, &context.InterruptFlag{}), cfg
}

func writeSnapshot(t *testing.T, cfg Config, name, content string) {
	t.Helper()

	dir := cfg.PackageDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, controlFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestListInstalledPackages(t *testing.T) {
	mgr, cfg := newTestManager(t)

	writeSnapshot(t, cfg, "foo", "Package: foo\nX-Status: installed\n")
	writeSnapshot(t, cfg, "bar", "Package: bar\nX-Status: installed\n")

	names, err := mgr.ListInstalledPackages()
	if err != nil {
		t.Fatalf("ListInstalledPackages failed: %v", err)
	}

	if len(names) != 2 || names[0] != "bar" || names[1] != "foo" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestListInstalledPackagesEmptyAdmindir(t *testing.T) {
	mgr, _ := newTestManager(t)

	names, err := mgr.ListInstalledPackages()
	if err != nil {
		t.Fatalf("ListInstalledPackages failed: %v", err)
	}

	if len(names) != 0 {
		t.Fatalf("expected no packages, got %v", names)
	}
}

func TestPackageStatus(t *testing.T) {
	mgr, cfg := newTestManager(t)

	writeSnapshot(t, cfg, "foo", "Package: foo\nX-Status: installed\n")

	status, err := mgr.PackageStatus("foo")
	if err != nil {
		t.Fatalf("PackageStatus failed: %v", err)
	}

	if status != "installed" {
		t.Fatalf("PackageStatus = %q, want %q", status, "installed")
	}
}

func TestLoadPackageIsCached(t *testing.T) {
	mgr, cfg := newTestManager(t)

	writeSnapshot(t, cfg, "foo", "Package: foo\n")

	first, err := mgr.LoadPackage("foo")
	if err != nil {
		t.Fatalf("LoadPackage failed: %v", err)
	}

	// Mutate the on-disk file; the cached parse should not change.
	writeSnapshot(t, cfg, "foo", "Package: foo\nVersion: 2.0\n")

	second, err := mgr.LoadPackage("foo")
	if err != nil {
		t.Fatalf("LoadPackage failed: %v", err)
	}

	if first != second {
		t.Fatal("expected LoadPackage to return the cached *control.File")
	}
}

func TestSetGetDeleteField(t *testing.T) {
	mgr, cfg := newTestManager(t)

	writeSnapshot(t, cfg, "foo", "Package: foo\n")

	if err := mgr.SetField("foo", "Section", "devel"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	value, err := mgr.GetField("foo", "Section")
	if err != nil {
		t.Fatalf("GetField failed: %v", err)
	}

	if value != "devel" {
		t.Fatalf("GetField = %q, want %q", value, "devel")
	}

	// Persisted to disk since foo is installed.
	raw, err := os.ReadFile(filepath.Join(cfg.PackageDir("foo"), controlFileName))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if !strings.Contains(string(raw), "Section: devel") {
		t.Fatalf("expected persisted snapshot to contain Section field, got %q", raw)
	}

	if err := mgr.DeleteField("foo", "Section"); err != nil {
		t.Fatalf("DeleteField failed: %v", err)
	}

	if _, err := mgr.GetField("foo", "Section"); err == nil {
		t.Fatal("expected error after deleting field")
	}
}

func TestSetFieldUninstalledArchiveStaysInMemory(t *testing.T) {
	mgr, cfg := newTestManager(t)

	if err := mgr.SetField("not-installed", "Section", "devel"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	if _, err := os.Stat(cfg.PackageDir("not-installed")); err == nil {
		t.Fatal("expected no on-disk snapshot for an uninstalled archive")
	}

	value, err := mgr.GetField("not-installed", "Section")
	if err != nil {
		t.Fatalf("GetField failed: %v", err)
	}

	if value != "devel" {
		t.Fatalf("GetField = %q, want %q", value, "devel")
	}
}

func TestSetPackageSelectionToReject(t *testing.T) {
	mgr, cfg := newTestManager(t)

	if err := mgr.SetPackageSelectionToReject("absent-package"); err != nil {
		t.Fatalf("SetPackageSelectionToReject failed: %v", err)
	}

	if _, err := mgr.PackageStatus("absent-package"); err != nil {
		t.Fatalf("PackageStatus failed: %v", err)
	}

	value, err := mgr.GetField("absent-package", "X-Selection")
	if err != nil {
		t.Fatalf("GetField failed: %v", err)
	}

	if value != "reject" {
		t.Fatalf("X-Selection = %q, want %q", value, "reject")
	}

	if _, err := os.Stat(filepath.Join(cfg.PackageDir("absent-package"), controlFileName)); err != nil {
		t.Fatalf("expected stub entry persisted to disk: %v", err)
	}
}

func TestGlobalHooks(t *testing.T) {
	mgr, _ := newTestManager(t)

	if err := mgr.AddGlobalHook("validate", []byte("#!/bin/sh\nexit 0\n")); err != nil {
		t.Fatalf("AddGlobalHook failed: %v", err)
	}

	hooks, err := mgr.ListHooks()
	if err != nil {
		t.Fatalf("ListHooks failed: %v", err)
	}

	if len(hooks) != 1 || hooks[0].Name != "validate" || !hooks[0].Global {
		t.Fatalf("unexpected hooks: %+v", hooks)
	}

	if err := mgr.RemoveGlobalHook("validate"); err != nil {
		t.Fatalf("RemoveGlobalHook failed: %v", err)
	}

	hooks, err = mgr.ListHooks()
	if err != nil {
		t.Fatalf("ListHooks failed: %v", err)
	}

	if len(hooks) != 0 {
		t.Fatalf("expected no hooks after removal, got %+v", hooks)
	}
}

func TestRemoveGlobalHookMissing(t *testing.T) {
	mgr, _ := newTestManager(t)

	if err := mgr.RemoveGlobalHook("nonexistent"); err == nil {
		t.Fatal("expected error removing an unregistered hook")
	}
}

func TestCheckInterrupt(t *testing.T) {
	flag := &context.InterruptFlag{}
	mgr := NewManager(Config{AdminDir: t.TempDir()}, flag)

	if err := mgr.CheckInterrupt(); err != nil {
		t.Fatalf("expected no error before interrupt, got: %v", err)
	}

	flag.Set()

	if err := mgr.CheckInterrupt(); err == nil {
		t.Fatal("expected interrupted error after flag.Set()")
	}
}

func TestTrackerReceivesMutations(t *testing.T) {
	mgr, cfg := newTestManager(t)
	writeSnapshot(t, cfg, "foo", "Package: foo\n")

	var lines []string
	mgr.SetTracker(trackerFunc(func(line string) { lines = append(lines, line) }))

	if err := mgr.SetField("foo", "Section", "devel"); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	if len(lines) != 1 {
		t.Fatalf("expected 1 tracked line, got %v", lines)
	}
}

type trackerFunc func(string)

func (f trackerFunc) Track(line string) { f(line) }
