// Package admin implements the administrative database manager: the
// on-disk layout under <admindir>/ that records installed packages,
// their control snapshots, selections, hooks, and the process lock.
package admin

// Config names the three roots every operation is scoped to, mirroring
// the WPKG_ROOTDIR/WPKG_INSTDIR/WPKG_ADMINDIR environment variables
// spec.md §6.7 exposes to maintainer scripts.
type Config struct {
	// RootDir is the filesystem root new files are written relative to.
	RootDir string
	// InstDir is where package payloads are unpacked.
	InstDir string
	// AdminDir is the administrative database root (<admindir>/ in
	// spec.md §6.5).
	AdminDir string
	// Force holds the named --force-* overrides an operation was
	// invoked with (e.g. "force-rollback", "force-downgrade").
	Force map[string]bool
}

// IsForced reports whether the named force override is set.
func (c Config) IsForced(name string) bool {
	return c.Force != nil && c.Force[name]
}

// CoreDir returns <admindir>/core, the synthetic package directory
// holding the core control file, sources.list, and hooks/.
func (c Config) CoreDir() string {
	return c.AdminDir + "/core"
}

// PackageDir returns <admindir>/<name>, the per-package directory.
func (c Config) PackageDir(name string) string {
	return c.AdminDir + "/" + name
}
