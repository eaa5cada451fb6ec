package platform

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// ReExec runs a fresh copy of the current executable with args,
// inheriting the environment and standard streams, and waits for it
// to finish. Used when the running image must not be overwritten in
// place (self.go's packager self-upgrade detection).
func ReExec(args ...string) error {
	self, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "resolving current executable path")
	}

	cmd := exec.Command(self, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "re-executing self")
	}

	return nil
}
