package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpkgo/dpkgo/pkg/admin"
	admincontext "github.com/dpkgo/dpkgo/pkg/context"
	"github.com/dpkgo/dpkgo/pkg/control"
)

func newIndexEntry(t *testing.T, stanza string) IndexEntry {
	t.Helper()

	cf, err := control.Parse(stanza)
	require.NoError(t, err)

	return IndexEntry{Control: cf}
}

func installPackage(t *testing.T, mgr *admin.Manager, name, version, status string) {
	t.Helper()

	require.NoError(t, mgr.SetField(name, "Package", name))
	require.NoError(t, mgr.SetField(name, "Version", version))
	require.NoError(t, mgr.SetField(name, "X-Status", status))
}

func TestUpgradeListNotInstalled(t *testing.T) {
	cfg := admin.Config{RootDir: t.TempDir(), InstDir: t.TempDir(), AdminDir: t.TempDir()}
	mgr := admin.NewManager(cfg, &admincontext.InterruptFlag{})

	entry := newIndexEntry(t, "Package: htop\nVersion: 3.2.2-1\nArchitecture: amd64\n")

	all, urgent, err := UpgradeList(mgr, []IndexEntry{entry})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ClassNotInstalled, all[0].Class)
	assert.Empty(t, urgent)
}

func TestUpgradeListNeedUpgradeAndUrgent(t *testing.T) {
	cfg := admin.Config{RootDir: t.TempDir(), InstDir: t.TempDir(), AdminDir: t.TempDir()}
	mgr := admin.NewManager(cfg, &admincontext.InterruptFlag{})

	installPackage(t, mgr, "htop", "3.0.0-1", "installed")

	entry := newIndexEntry(t, "Package: htop\nVersion: 3.2.2-1\nArchitecture: amd64\nUrgency: high\n")

	all, urgent, err := UpgradeList(mgr, []IndexEntry{entry})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ClassNeedUpgrade, all[0].Class)
	assert.True(t, all[0].Urgent)
	require.Len(t, urgent, 1)
	assert.Equal(t, "htop", urgent[0].Name)
}

func TestUpgradeListBlockedOnHold(t *testing.T) {
	cfg := admin.Config{RootDir: t.TempDir(), InstDir: t.TempDir(), AdminDir: t.TempDir()}
	mgr := admin.NewManager(cfg, &admincontext.InterruptFlag{})

	installPackage(t, mgr, "htop", "3.0.0-1", "hold")

	entry := newIndexEntry(t, "Package: htop\nVersion: 3.2.2-1\nArchitecture: amd64\n")

	all, _, err := UpgradeList(mgr, []IndexEntry{entry})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ClassBlockedUpgrade, all[0].Class)
}

func TestUpgradeListInstalledUpToDate(t *testing.T) {
	cfg := admin.Config{RootDir: t.TempDir(), InstDir: t.TempDir(), AdminDir: t.TempDir()}
	mgr := admin.NewManager(cfg, &admincontext.InterruptFlag{})

	installPackage(t, mgr, "htop", "3.2.2-1", "installed")

	entry := newIndexEntry(t, "Package: htop\nVersion: 3.2.2-1\nArchitecture: amd64\n")

	all, _, err := UpgradeList(mgr, []IndexEntry{entry})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ClassInstalled, all[0].Class)
}

func TestUpgradeListInvalidVersion(t *testing.T) {
	cfg := admin.Config{RootDir: t.TempDir(), InstDir: t.TempDir(), AdminDir: t.TempDir()}
	mgr := admin.NewManager(cfg, &admincontext.InterruptFlag{})

	entry := newIndexEntry(t, "Package: htop\nVersion: :bad\nArchitecture: amd64\n")

	all, _, err := UpgradeList(mgr, []IndexEntry{entry})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ClassInvalid, all[0].Class)
	assert.NotEmpty(t, all[0].RejectionCause)
}
