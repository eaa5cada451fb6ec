// Package installer drives the unpack/configure state machine spec.md
// §4.F describes: collecting candidate archives, validating them
// against the target's policy, then unpacking and configuring them in
// dependency order with journal-backed rollback on failure.
package installer

import (
	"github.com/dpkgo/dpkgo/pkg/control"
	"github.com/dpkgo/dpkgo/pkg/files"
)

// State is one step of a candidate's per-package state machine:
// wanted → loaded → validated → unpacked → configured, or rejected at
// any point with a recorded cause.
type State string

const (
	StateWanted     State = "wanted"
	StateLoaded     State = "loaded"
	StateValidated  State = "validated"
	StateUnpacked   State = "unpacked"
	StateConfigured State = "configured"
	StateRejected   State = "rejected"
)

// InstallType distinguishes a package named explicitly on the command
// line from one pulled in transitively to satisfy a dependency.
type InstallType string

const (
	InstallExplicit InstallType = "explicit"
	InstallImplicit InstallType = "implicit"
)

// Candidate is one package working its way through the installer's
// state machine.
type Candidate struct {
	Name            string
	ArchivePath     string
	Control         *control.File
	Payload         []*files.FileInfo
	State           State
	InstallType     InstallType
	PreviousVersion string // empty on first install
	RejectReason    string
	BackupID        string // scratch area holding displaced files, set during Unpack
}

// Version returns the candidate's Version control field, or "" if unset.
func (c *Candidate) Version() string {
	if c.Control == nil {
		return ""
	}

	field, ok := c.Control.Get("Version")
	if !ok {
		return ""
	}

	return field.Value
}

// Reject transitions c to StateRejected with the given cause.
func (c *Candidate) Reject(reason string) {
	c.State = StateRejected
	c.RejectReason = reason
}
