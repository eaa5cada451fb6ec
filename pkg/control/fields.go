package control

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

// FieldKind names the syntactic/semantic shape a registered field's
// value must satisfy, each backed by a validator.v10 tag or a custom
// check where the stdlib/validator vocabulary falls short (RFC 2822
// dates, dependency expressions).
type FieldKind string

const (
	KindText       FieldKind = "text"
	KindEmailList  FieldKind = "email-list"
	KindURL        FieldKind = "url"
	KindVersion    FieldKind = "version"
	KindArch       FieldKind = "architecture"
	KindPriority   FieldKind = "priority"
	KindSection    FieldKind = "section"
	KindUrgency    FieldKind = "urgency"
	KindBool       FieldKind = "boolean"
	KindSize       FieldKind = "size"
	KindDate       FieldKind = "date"
	KindDependency FieldKind = "dependency"
)

// Definition is one entry in the field factory: a canonical field
// name, documentation, and the kind of verification it requires.
type Definition struct {
	Name     string
	Help     string
	Kind     FieldKind
	Required bool
}

var validate = validator.New()

// Registry is the pluggable field factory spec.md §4.B describes: each
// registered Definition knows how to verify its own value.
type Registry struct {
	definitions map[string]*Definition
}

// NewRegistry returns a Registry pre-populated with the standard
// control fields spec.md §4.B enumerates.
func NewRegistry() *Registry {
	r := &Registry{definitions: make(map[string]*Definition)}

	for _, d := range standardFields {
		def := d
		r.definitions[strings.ToLower(def.Name)] = &def
	}

	return r
}

var standardFields = []Definition{
	{Name: "Package", Help: "binary package name", Kind: KindText, Required: true},
	{Name: "Version", Help: "package version", Kind: KindVersion, Required: true},
	{Name: "Architecture", Help: "target architecture triplet", Kind: KindArch, Required: true},
	{Name: "Maintainer", Help: "maintainer name and e-mail", Kind: KindEmailList, Required: true},
	{Name: "Homepage", Help: "project homepage URI", Kind: KindURL},
	{Name: "Priority", Help: "install priority", Kind: KindPriority},
	{Name: "Section", Help: "archive section", Kind: KindSection},
	{Name: "Urgency", Help: "upload urgency", Kind: KindUrgency},
	{Name: "Essential", Help: "whether the package is essential", Kind: KindBool},
	{Name: "Installed-Size", Help: "installed size in KiB", Kind: KindSize},
	{Name: "Date", Help: "RFC 2822 changelog date", Kind: KindDate},
	{Name: "Depends", Help: "hard runtime dependencies", Kind: KindDependency},
	{Name: "Pre-Depends", Help: "dependencies required before unpack", Kind: KindDependency},
	{Name: "Recommends", Help: "recommended but not mandatory dependencies", Kind: KindDependency},
	{Name: "Suggests", Help: "suggested dependencies", Kind: KindDependency},
	{Name: "Conflicts", Help: "packages this one cannot coexist with", Kind: KindDependency},
	{Name: "Breaks", Help: "packages broken by this one", Kind: KindDependency},
	{Name: "Provides", Help: "virtual packages this one satisfies", Kind: KindDependency},
	{Name: "Replaces", Help: "packages this one replaces", Kind: KindDependency},
	{Name: "Description", Help: "short and extended description", Kind: KindText, Required: true},
}

// Lookup returns the Definition registered for name, case-insensitively.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.definitions[strings.ToLower(name)]

	return d, ok
}

// Register adds or replaces a field Definition, letting callers extend
// the factory with distribution-specific fields.
func (r *Registry) Register(d Definition) {
	r.definitions[strings.ToLower(d.Name)] = &d
}

// VerifyValue enforces the Definition's Kind constraint against value,
// returning a *errors.DpkgoError with ErrTypeInvalid on violation.
func (d *Definition) VerifyValue(value string) error {
	if d.Required && strings.TrimSpace(value) == "" {
		return errors.New(errors.ErrTypeInvalid, d.Name+" is required")
	}

	if value == "" {
		return nil
	}

	switch d.Kind {
	case KindEmailList:
		return verifyEmailList(d.Name, value)
	case KindURL:
		return verifyTag(d.Name, value, "url")
	case KindVersion:
		return verifyTag(d.Name, value, "required")
	case KindArch:
		return verifyArchitecture(d.Name, value)
	case KindPriority:
		return verifyOneOf(d.Name, value, []string{
			"required", "important", "standard", "optional", "extra",
		})
	case KindSection:
		return verifyTag(d.Name, value, "required")
	case KindUrgency:
		return verifyOneOf(d.Name, value, []string{
			"low", "medium", "high", "emergency", "critical",
		})
	case KindBool:
		return verifyBool(d.Name, value)
	case KindSize:
		return verifyTag(d.Name, value, "numeric")
	case KindDate:
		return verifyRFC2822Date(d.Name, value)
	case KindDependency, KindText:
		return nil
	default:
		return nil
	}
}

// verifyTag runs validate.Var with a single validator.v10 tag, wrapping
// a failure as an invalid-field DpkgoError.
func verifyTag(field, value, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return errors.New(errors.ErrTypeInvalid, fmt.Sprintf("%s: %v", field, err))
	}

	return nil
}

// verifyOneOf validates value against an enumerated set of options.
func verifyOneOf(field, value string, options []string) error {
	tag := "oneof=" + strings.Join(options, " ")
	if err := validate.Var(strings.ToLower(value), tag); err != nil {
		return errors.New(errors.ErrTypeInvalid,
			fmt.Sprintf("%s: %q is not one of %v", field, value, options))
	}

	return nil
}

// verifyEmailList validates a comma-separated list of "Name <addr>" or
// bare-address entries, the form a Maintainer/Uploaders field takes.
func verifyEmailList(field, value string) error {
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if _, err := mail.ParseAddress(entry); err != nil {
			return errors.New(errors.ErrTypeInvalid, fmt.Sprintf("%s: invalid address %q", field, entry))
		}
	}

	return nil
}

// verifyArchitecture accepts "all" or a dpkg-style architecture
// triplet/wildcard such as "amd64", "linux-any", "any-arm64".
func verifyArchitecture(field, value string) error {
	for _, arch := range strings.Fields(value) {
		if arch == "all" || arch == "any" {
			continue
		}

		if err := verifyTag(field, arch, "alphanum"); err != nil {
			parts := strings.SplitN(arch, "-", 2)
			if len(parts) != 2 {
				return errors.New(errors.ErrTypeInvalid, fmt.Sprintf("%s: invalid architecture %q", field, arch))
			}
		}
	}

	return nil
}

// verifyBool accepts the yes/no and true/false spellings dpkg control
// files use for boolean fields such as Essential.
func verifyBool(field, value string) error {
	switch strings.ToLower(value) {
	case "yes", "no", "true", "false":
		return nil
	default:
		return errors.New(errors.ErrTypeInvalid, fmt.Sprintf("%s: %q is not a boolean", field, value))
	}
}

// verifyRFC2822Date enforces the changelog Date field's format.
func verifyRFC2822Date(field, value string) error {
	if _, err := time.Parse(time.RFC1123Z, value); err != nil {
		if _, err2 := time.Parse("Mon, 2 Jan 2006 15:04:05 -0700", value); err2 != nil {
			return errors.New(errors.ErrTypeInvalid, fmt.Sprintf("%s: invalid RFC 2822 date %q", field, value))
		}
	}

	return nil
}

// VerifyAll runs every registered field's VerifyValue against the
// resolved stanza, collecting all failures rather than stopping at the
// first, each annotated with the originating field's source line.
func (r *Registry) VerifyAll(f *File, subPackage string) []error {
	var errs []error

	resolved := f.Resolve(subPackage)

	for _, def := range r.definitions {
		var (
			field *Field
			ok    bool
		)

		for rname, rfield := range resolved {
			if strings.EqualFold(rname, def.Name) {
				field, ok = rfield, true

				break
			}
		}

		value := ""
		line := 0

		if ok {
			value = field.Value
			line = field.Line
		}

		if err := def.VerifyValue(value); err != nil {
			if line > 0 {
				err = errors.New(errors.ErrTypeInvalid, fmt.Sprintf("control:%d: %v", line, err))
			}

			errs = append(errs, err)
		}
	}

	return errs
}
