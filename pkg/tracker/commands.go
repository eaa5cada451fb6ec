package tracker

// Verb names the journal schema's recognized commands and the argument
// layout each one is written with. Inverses are applied by the
// Installer and Remover inverters; a verb neither of them handles is
// skipped on rollback.
const (
	// VerbUnpack records that a package's payload was unpacked:
	// "unpack <name> <version> <backupID>". Inverse: remove the
	// unpacked files and restore any displaced originals from backupID.
	VerbUnpack = "unpack"
	// VerbConfigure records that a package's postinst ran successfully:
	// "configure <name>". Inverse: reset X-Status to unpacked.
	VerbConfigure = "configure"
	// VerbRemove records that a package's files were removed:
	// "remove <name> <version> <backupID>". Inverse: re-unpack from
	// backupID.
	VerbRemove = "remove"
	// VerbDeconfigure records that a package was deconfigured:
	// "deconfigure <name>". No inverse is applied; rollback only logs it.
	VerbDeconfigure = "deconfigure"
	// VerbSetField records a control-field mutation:
	// "set-field <name> <field>". The previous value is not recorded
	// and no inverter handles this verb.
	VerbSetField = "set-field"
	// VerbDeleteField records a control-field deletion:
	// "delete-field <name> <field>". The previous value is not recorded
	// and no inverter handles this verb.
	VerbDeleteField = "delete-field"
	// VerbAddHook records a hook registration: "add-hook <hookName>".
	// No inverter handles this verb.
	VerbAddHook = "add-hook"
	// VerbRemoveHook records a hook removal: "remove-hook <hookName>".
	// The removed script is not backed up and no inverter handles this
	// verb.
	VerbRemoveHook = "remove-hook"
	// VerbReject records a package marked for rejection:
	// "reject <name>". No inverter handles this verb.
	VerbReject = "reject"
	// VerbPurge records that a package's conffiles and database entry
	// were deleted: "purge <name>". Irreversible; has no inverse.
	VerbPurge = "purge"
)

// NewUnpackLine renders a VerbUnpack journal line.
func NewUnpackLine(name, ver, backupID string) string {
	return Command{Verb: VerbUnpack, Args: []string{name, ver, dashIfEmpty(backupID)}}.String()
}

// NewConfigureLine renders a VerbConfigure journal line.
func NewConfigureLine(name string) string {
	return Command{Verb: VerbConfigure, Args: []string{name}}.String()
}

// NewRemoveLine renders a VerbRemove journal line.
func NewRemoveLine(name, ver, backupID string) string {
	return Command{Verb: VerbRemove, Args: []string{name, ver, dashIfEmpty(backupID)}}.String()
}

// NewDeconfigureLine renders a VerbDeconfigure journal line.
func NewDeconfigureLine(name string) string {
	return Command{Verb: VerbDeconfigure, Args: []string{name}}.String()
}

// NewPurgeLine renders a VerbPurge journal line.
func NewPurgeLine(name string) string {
	return Command{Verb: VerbPurge, Args: []string{name}}.String()
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
