// Package hooks runs the global and per-package maintainer hooks the
// administrative database tracks (admin.Manager.ListHooks), filtered
// to a single named phase, for the installer's PreConfigure step and
// any other transaction phase that wants the same dispatch.
package hooks

import (
	"context"
	"os"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/shell"
)

// RunPhase runs every registered hook named phase, in the order
// admin.Manager.ListHooks returns them, passing env to each maintainer
// script invocation. The first failing hook aborts the phase.
func RunPhase(ctx context.Context, mgr *admin.Manager, phase string, env shell.ScriptEnv) error {
	registered, err := mgr.ListHooks()
	if err != nil {
		return err
	}

	for _, hook := range registered {
		if hook.Name != phase {
			continue
		}

		script, err := os.ReadFile(hook.Path)
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeIO, "reading "+phase+" hook "+hook.Path)
		}

		if err := shell.RunMaintainerScript(ctx, string(script), hook.Package, env); err != nil {
			return errors.Wrap(err, errors.ErrTypeInvalid, phase+" hook failed: "+hook.Path)
		}
	}

	return nil
}
