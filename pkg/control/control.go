// Package control reads and writes Debian-style RFC822-like control
// field files: ordered field-name to value mappings, continuation
// lines, sub-package qualifiers, and ${name} substitution variables.
package control

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

// Field holds one parsed field's value together with the source line
// it started on, so verification errors can report file:line context.
type Field struct {
	Name      string
	Value     string
	Qualifier string // sub-package qualifier, e.g. "runtime" in "Package/runtime"
	Line      int
}

// File is an ordered collection of fields read from a single control
// stanza. Order is preserved so Write round-trips the original layout.
type File struct {
	Fields []*Field
}

// auto_transform_variables built-ins injected by ResolveVariables in
// addition to whatever the caller supplies, per spec.md §4.B.
const (
	VarRootDir       = "rootdir"
	VarInstDir       = "instdir"
	VarAdminDir      = "admindir"
	VarName          = "name"
	VarVersion       = "version"
	VarDescription   = "description"
	VarHomepage      = "homepage"
	VarInstallPrefix = "install_prefix"
)

// Parse reads a control stanza from raw text. Lines beginning with
// whitespace continue the previous field's value; a continuation line
// containing a lone "." denotes an empty paragraph line (preserved as
// a blank line rather than trimmed away). A "Name/qualifier: value"
// header splits the qualifier into Field.Qualifier.
func Parse(raw string) (*File, error) {
	file := &File{}

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0

	var current *Field

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		switch {
		case strings.TrimSpace(line) == "":
			current = nil

			continue
		case (line[0] == ' ' || line[0] == '\t'):
			if current == nil {
				return nil, errors.New(errors.ErrTypeParse,
					fmt.Sprintf("control:%d: continuation line without a preceding field", lineNo))
			}

			cont := strings.TrimLeft(line, " \t")
			if cont == "." {
				cont = ""
			}

			current.Value += "\n" + cont
		default:
			idx := strings.IndexByte(line, ':')
			if idx < 0 {
				return nil, errors.New(errors.ErrTypeParse,
					fmt.Sprintf("control:%d: missing ':' in field header", lineNo))
			}

			name := strings.TrimSpace(line[:idx])
			value := strings.TrimSpace(line[idx+1:])

			qualifier := ""
			if slash := strings.IndexByte(name, '/'); slash >= 0 {
				qualifier = name[slash+1:]
				name = name[:slash]
			}

			current = &Field{Name: name, Value: value, Qualifier: qualifier, Line: lineNo}
			file.Fields = append(file.Fields, current)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIO, "reading control stanza")
	}

	return file, nil
}

// Get returns the first field named name with no qualifier (or any
// qualifier if none unqualified exists), and whether it was found.
func (f *File) Get(name string) (*Field, bool) {
	var qualified *Field

	for _, field := range f.Fields {
		if !strings.EqualFold(field.Name, name) {
			continue
		}

		if field.Qualifier == "" {
			return field, true
		}

		if qualified == nil {
			qualified = field
		}
	}

	if qualified != nil {
		return qualified, true
	}

	return nil, false
}

// Resolve returns the fields that apply when subPackage is selected:
// an unqualified field is overridden by one whose Qualifier matches
// subPackage, per spec.md §4.B.
func (f *File) Resolve(subPackage string) map[string]*Field {
	resolved := make(map[string]*Field)

	for _, field := range f.Fields {
		if field.Qualifier != "" && field.Qualifier != subPackage {
			continue
		}

		existing, ok := resolved[field.Name]
		if !ok || (field.Qualifier != "" && existing.Qualifier == "") {
			resolved[field.Name] = field
		}
	}

	return resolved
}

// Set replaces the value of the first matching unqualified field, or
// appends a new one if none exists.
func (f *File) Set(name, value string) {
	for _, field := range f.Fields {
		if strings.EqualFold(field.Name, name) && field.Qualifier == "" {
			field.Value = value

			return
		}
	}

	f.Fields = append(f.Fields, &Field{Name: name, Value: value})
}

// Write renders the stanza back to its RFC822-like text form,
// preserving field order and re-emitting continuation lines for
// multi-line values (blank lines become a lone ".").
func (f *File) Write() string {
	var b strings.Builder

	for _, field := range f.Fields {
		name := field.Name
		if field.Qualifier != "" {
			name += "/" + field.Qualifier
		}

		lines := strings.Split(field.Value, "\n")

		fmt.Fprintf(&b, "%s: %s\n", name, lines[0])

		for _, cont := range lines[1:] {
			if cont == "" {
				b.WriteString(" .\n")
			} else {
				b.WriteString(" " + cont + "\n")
			}
		}
	}

	return b.String()
}

// ResolveVariables substitutes every ${name} occurrence in input using
// vars, then the auto_transform_variables built-ins drawn from
// builtins, builtins taking precedence only for names vars does not
// already define.
func ResolveVariables(input string, vars map[string]string, builtins map[string]string) string {
	merged := make(map[string]string, len(builtins)+len(vars))

	for k, v := range builtins {
		merged[k] = v
	}

	for k, v := range vars {
		merged[k] = v
	}

	names := make([]string, 0, len(merged))
	for k := range merged {
		names = append(names, k)
	}

	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	result := input
	for _, name := range names {
		result = strings.ReplaceAll(result, "${"+name+"}", merged[name])
	}

	return result
}

// ParseSubstvars reads a substvars file's "name=value" lines into a map,
// the form spec.md §4.B describes as the source of the variables map.
func ParseSubstvars(raw string) (map[string]string, error) {
	vars := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return nil, errors.New(errors.ErrTypeParse,
				fmt.Sprintf("substvars:%d: missing '='", lineNo))
		}

		vars[line[:idx]] = line[idx+1:]
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIO, "reading substvars")
	}

	return vars, nil
}
