package admin

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dpkgo/dpkgo/pkg/context"
	"github.com/dpkgo/dpkgo/pkg/control"
	"github.com/dpkgo/dpkgo/pkg/errors"
)

// controlFileName is the snapshot file recording a package's current
// control stanza under <admindir>/<name>/.
const controlFileName = "control"

// Tracker is the journal a Manager appends mutation lines to while a
// transaction is live; satisfied by *tracker.Journal.
type Tracker interface {
	Track(line string)
}

// Manager provides every administrative database mutation spec.md
// §4.E describes: package status, control snapshots, hooks, the
// reject selection stub, and journal attachment.
type Manager struct {
	cfg       Config
	interrupt *context.InterruptFlag
	tracker   Tracker

	mu       sync.Mutex
	packages map[string]*control.File
	selfName string
}

// NewManager returns a Manager rooted at cfg, observing interrupt for
// CheckInterrupt.
func NewManager(cfg Config, interrupt *context.InterruptFlag) *Manager {
	return &Manager{
		cfg:       cfg,
		interrupt: interrupt,
		packages:  make(map[string]*control.File),
	}
}

// SetTracker attaches t so subsequent mutations are journaled via Track.
func (m *Manager) SetTracker(t Tracker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracker = t
}

// Track appends line to the attached journal, if any is set.
func (m *Manager) Track(line string) {
	m.mu.Lock()
	t := m.tracker
	m.mu.Unlock()

	if t != nil {
		t.Track(line)
	}
}

// CheckInterrupt returns an ErrTypeInterrupted error if the interrupt
// flag has been raised; callers in every long-running loop call this
// between units of work, per spec.md §4.E.
func (m *Manager) CheckInterrupt() error {
	if m.interrupt != nil && m.interrupt.Observed() {
		return errors.New(errors.ErrTypeInterrupted, "operation interrupted")
	}

	return nil
}

// ListInstalledPackages scans <admindir>/ for per-package directories
// (excluding "core") that hold a control snapshot.
func (m *Manager) ListInstalledPackages() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.AdminDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, errors.ErrTypeIO, "scanning admin directory")
	}

	var names []string

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "core" {
			continue
		}

		if _, err := os.Stat(filepath.Join(m.cfg.PackageDir(entry.Name()), controlFileName)); err == nil {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

// PackageStatus reads the X-Status field from a package's stored
// control snapshot (e.g. "installed", "reject", "config-files").
func (m *Manager) PackageStatus(name string) (string, error) {
	file, err := m.LoadPackage(name)
	if err != nil {
		return "", err
	}

	field, ok := file.Get("X-Status")
	if !ok {
		return "", nil
	}

	return field.Value, nil
}

// LoadPackage caches and returns the parsed control file for name,
// idempotently: a second call returns the cached value without
// re-reading the file from disk.
func (m *Manager) LoadPackage(name string) (*control.File, error) {
	m.mu.Lock()
	if cached, ok := m.packages[name]; ok {
		m.mu.Unlock()

		return cached, nil
	}
	m.mu.Unlock()

	path := filepath.Join(m.cfg.PackageDir(name), controlFileName)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIO, "reading control snapshot for "+name)
	}

	file, err := control.Parse(string(raw))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.packages[name] = file
	m.mu.Unlock()

	return file, nil
}

// isInstalled reports whether name has an on-disk snapshot, meaning
// SetField/GetField/DeleteField must persist rather than stay
// in-memory-only, per spec.md §4.E.
func (m *Manager) isInstalled(name string) bool {
	_, err := os.Stat(filepath.Join(m.cfg.PackageDir(name), controlFileName))

	return err == nil
}

// GetField returns fieldName's value from name's control stanza.
func (m *Manager) GetField(name, fieldName string) (string, error) {
	file, err := m.LoadPackage(name)
	if err != nil {
		return "", err
	}

	field, ok := file.Get(fieldName)
	if !ok {
		return "", errors.New(errors.ErrTypeUndefined, "field "+fieldName+" not set for "+name)
	}

	return field.Value, nil
}

// SetField sets fieldName to value in name's control stanza, persisting
// the snapshot to disk when name is an installed package; for an
// uninstalled archive the change affects only the cached in-memory view.
func (m *Manager) SetField(name, fieldName, value string) error {
	file, err := m.loadOrCreate(name)
	if err != nil {
		return err
	}

	file.Set(fieldName, value)

	if m.isInstalled(name) {
		if err := m.persist(name, file); err != nil {
			return err
		}

		m.Track("set-field " + name + " " + fieldName)
	}

	return nil
}

// DeleteField removes fieldName from name's control stanza.
func (m *Manager) DeleteField(name, fieldName string) error {
	file, err := m.LoadPackage(name)
	if err != nil {
		return err
	}

	kept := file.Fields[:0]

	for _, f := range file.Fields {
		if !strings.EqualFold(f.Name, fieldName) {
			kept = append(kept, f)
		}
	}

	file.Fields = kept

	if m.isInstalled(name) {
		if err := m.persist(name, file); err != nil {
			return err
		}

		m.Track("delete-field " + name + " " + fieldName)
	}

	return nil
}

// loadOrCreate behaves like LoadPackage but returns a fresh empty
// control.File instead of an error when name has no on-disk snapshot
// yet (the reject-stub and uninstalled-archive cases).
func (m *Manager) loadOrCreate(name string) (*control.File, error) {
	file, err := m.LoadPackage(name)
	if err == nil {
		return file, nil
	}

	file = &control.File{}

	m.mu.Lock()
	m.packages[name] = file
	m.mu.Unlock()

	return file, nil
}

// persist writes file back to <admindir>/<name>/control.
func (m *Manager) persist(name string, file *control.File) error {
	dir := m.cfg.PackageDir(name)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating package directory for "+name)
	}

	path := filepath.Join(dir, controlFileName)

	if err := os.WriteFile(path, []byte(file.Write()), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing control snapshot for "+name)
	}

	return nil
}

// SetPackageSelectionToReject records X-Selection: reject for name,
// creating a stub entry even when name is not installed, per spec.md
// §4.E.
func (m *Manager) SetPackageSelectionToReject(name string) error {
	file, err := m.loadOrCreate(name)
	if err != nil {
		return err
	}

	file.Set("Package", name)
	file.Set("X-Selection", "reject")

	if err := m.persist(name, file); err != nil {
		return err
	}

	m.Track("reject " + name)

	return nil
}

// PurgePackage deletes name's administrative database entry entirely
// (its control snapshot, md5sums, conffiles and hooks directory), the
// terminal step of the remover's purge operation.
func (m *Manager) PurgePackage(name string) error {
	m.mu.Lock()
	delete(m.packages, name)
	m.mu.Unlock()

	if err := os.RemoveAll(m.cfg.PackageDir(name)); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "purging database entry for "+name)
	}

	m.Track("purge " + name)

	return nil
}

// hooksDir returns the directory hooks for name are stored under:
// <admindir>/core/hooks for the empty/"core" name, else
// <admindir>/<name>/hooks.
func (m *Manager) hooksDir(name string) string {
	if name == "" || name == "core" {
		return filepath.Join(m.cfg.CoreDir(), "hooks")
	}

	return filepath.Join(m.cfg.PackageDir(name), "hooks")
}

// globalHookName renders the hierarchical core_<name> naming spec.md's
// SUPPLEMENTED FEATURES section uses to distinguish global hooks from
// per-package ones.
func globalHookName(name string) string {
	return "core_" + name
}

// AddGlobalHook stores script under <admindir>/core/hooks/core_<name>.
func (m *Manager) AddGlobalHook(name string, script []byte) error {
	dir := m.hooksDir("")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "creating hooks directory")
	}

	path := filepath.Join(dir, globalHookName(name))

	if err := os.WriteFile(path, script, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "writing global hook "+name)
	}

	m.Track("add-hook " + globalHookName(name))

	return nil
}

// RemoveGlobalHook deletes a previously-added global hook.
func (m *Manager) RemoveGlobalHook(name string) error {
	path := filepath.Join(m.hooksDir(""), globalHookName(name))

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrTypeUndefined, "hook "+name+" not registered")
		}

		return errors.Wrap(err, errors.ErrTypeIO, "removing global hook "+name)
	}

	m.Track("remove-hook " + globalHookName(name))

	return nil
}

// Hook describes one registered maintainer or global hook script.
type Hook struct {
	Name    string // hook name, without the core_ prefix for globals
	Global  bool
	Package string // empty for a global hook
	Path    string
}

// ListHooks returns every global hook (core/hooks/core_*) and every
// per-package hook registered under the installed packages' hooks/
// directories.
func (m *Manager) ListHooks() ([]Hook, error) {
	var hooks []Hook

	globals, err := listHookFiles(m.hooksDir(""))
	if err != nil {
		return nil, err
	}

	for _, entry := range globals {
		hooks = append(hooks, Hook{
			Name:   strings.TrimPrefix(entry.name, "core_"),
			Global: true,
			Path:   entry.path,
		})
	}

	names, err := m.ListInstalledPackages()
	if err != nil {
		return nil, err
	}

	for _, pkgName := range names {
		entries, err := listHookFiles(m.hooksDir(pkgName))
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			hooks = append(hooks, Hook{Name: entry.name, Package: pkgName, Path: entry.path})
		}
	}

	return hooks, nil
}

type hookFile struct {
	name string
	path string
}

func listHookFiles(dir string) ([]hookFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, errors.ErrTypeIO, "scanning hooks directory "+dir)
	}

	var files []hookFile

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		files = append(files, hookFile{name: entry.Name(), path: filepath.Join(dir, entry.Name())})
	}

	return files, nil
}
