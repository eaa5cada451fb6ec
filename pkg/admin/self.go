package admin

import (
	"github.com/dpkgo/dpkgo/pkg/platform"
)

// AddSelf registers name as the packager's own identity (spec.md
// §4.E: "registers the packager's own identity so an attempt to
// upgrade the packager can be detected").
func (m *Manager) AddSelf(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.selfName = name
}

// IsSelf reports whether name matches the registered self identity.
func (m *Manager) IsSelf(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.selfName != "" && m.selfName == name
}

// ReExecSelfUpgrade re-executes a tagged copy of the running image to
// complete an in-place upgrade of the packager's own package, so the
// running binary is never overwritten out from under itself on
// platforms that forbid replacing a running executable (spec.md §4.E,
// §4.F, S5).
func (m *Manager) ReExecSelfUpgrade(args ...string) error {
	return platform.ReExec(args...)
}
