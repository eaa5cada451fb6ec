// Package constants defines the values shared across the package manager
// core: supported architectures, the admin database layout, exit codes,
// and reserved filenames.
package constants

// DebianArches maps Go's runtime.GOARCH values to the Debian architecture
// names recorded in control files and compared against a package's
// Architecture field during an install.
var DebianArches = map[string]string{
	"amd64":   "amd64",
	"386":     "i386",
	"arm64":   "arm64",
	"arm":     "armhf",
	"ppc64le": "ppc64el",
	"s390x":   "s390x",
	"riscv64": "riscv64",
	"mips":    "mips",
	"mipsle":  "mipsel",
}

// AllArch is the Architecture value for packages with no compiled code,
// installable on any architecture.
const AllArch = "all"

// TranslateArch maps goarch to its Debian architecture name, returning
// goarch unchanged when there is no mapping.
func TranslateArch(goarch string) string {
	if arch, ok := DebianArches[goarch]; ok {
		return arch
	}

	return goarch
}
