package hooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpkgo/dpkgo/pkg/admin"
	admincontext "github.com/dpkgo/dpkgo/pkg/context"
	"github.com/dpkgo/dpkgo/pkg/shell"
)

func newTestManager(t *testing.T) (*admin.Manager, admin.Config) {
	t.Helper()

	cfg := admin.Config{
		RootDir:  t.TempDir(),
		InstDir:  t.TempDir(),
		AdminDir: t.TempDir(),
	}

	return admin.NewManager(cfg, &admincontext.InterruptFlag{}), cfg
}

func TestRunPhaseRunsMatchingGlobalHook(t *testing.T) {
	mgr, cfg := newTestManager(t)

	marker := filepath.Join(cfg.RootDir, "ran")
	script := "#!/bin/sh\ntouch " + marker + "\n"

	require.NoError(t, mgr.AddGlobalHook("validate", []byte(script)))

	env := shell.ScriptEnv{RootDir: cfg.RootDir, InstDir: cfg.InstDir, AdminDir: cfg.AdminDir}

	require.NoError(t, RunPhase(context.Background(), mgr, "validate", env))

	_, err := os.Stat(marker)
	assert.NoError(t, err, "expected validate hook to run and create marker file")
}

func TestRunPhaseIgnoresOtherPhases(t *testing.T) {
	mgr, cfg := newTestManager(t)

	marker := filepath.Join(cfg.RootDir, "ran")
	script := "#!/bin/sh\ntouch " + marker + "\n"

	require.NoError(t, mgr.AddGlobalHook("post-install", []byte(script)))

	env := shell.ScriptEnv{RootDir: cfg.RootDir, InstDir: cfg.InstDir, AdminDir: cfg.AdminDir}

	require.NoError(t, RunPhase(context.Background(), mgr, "validate", env))

	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "expected non-matching hook not to run")
}

func TestRunPhaseNoHooksRegistered(t *testing.T) {
	mgr, cfg := newTestManager(t)

	env := shell.ScriptEnv{RootDir: cfg.RootDir, InstDir: cfg.InstDir, AdminDir: cfg.AdminDir}

	assert.NoError(t, RunPhase(context.Background(), mgr, "validate", env))
}
