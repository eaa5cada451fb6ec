// Package depends parses and evaluates Debian-style dependency
// expressions: comma-separated clauses of pipe-separated atoms, each
// optionally constrained by a version relation, an architecture list,
// and a build-profile list.
package depends

import (
	"strings"

	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/version"
)

// Atom is one alternative within a clause: a package name with an
// optional version constraint, architecture restriction list, and
// build-profile restriction list.
//
// Grammar (spec.md §6.3):
//
//	expr  := clause ("," clause)*
//	clause := atom ("|" atom)*
//	atom  := name [WS "(" op WS version ")"] [WS "[" arch-list "]"] [WS "<" profile-list ">"]
type Atom struct {
	Name     string
	Op       version.Op
	Version  version.Version
	HasOp    bool
	Arches   []string
	Profiles []string
}

// Clause is a pipe-separated list of alternative atoms; it is
// satisfied if any one atom is satisfied.
type Clause struct {
	Atoms []Atom
}

// Expression is a comma-separated list of clauses; it is satisfied iff
// every clause is satisfied.
type Expression struct {
	Clauses []Clause
}

// Parse parses a dependency expression such as
// "libc6 (>= 2.34), foo | bar (= 1.0) [amd64]".
func Parse(raw string) (*Expression, error) {
	expr := &Expression{}

	for _, clauseText := range splitTop(raw, ',') {
		clauseText = strings.TrimSpace(clauseText)
		if clauseText == "" {
			continue
		}

		clause, err := parseClause(clauseText)
		if err != nil {
			return nil, err
		}

		expr.Clauses = append(expr.Clauses, *clause)
	}

	return expr, nil
}

func parseClause(raw string) (*Clause, error) {
	clause := &Clause{}

	for _, atomText := range splitTop(raw, '|') {
		atomText = strings.TrimSpace(atomText)
		if atomText == "" {
			continue
		}

		atom, err := parseAtom(atomText)
		if err != nil {
			return nil, err
		}

		clause.Atoms = append(clause.Atoms, *atom)
	}

	if len(clause.Atoms) == 0 {
		return nil, errors.New(errors.ErrTypeParse, "empty dependency clause")
	}

	return clause, nil
}

func parseAtom(raw string) (*Atom, error) {
	atom := &Atom{}

	rest := raw

	if idx := strings.IndexByte(rest, '('); idx >= 0 {
		end := strings.IndexByte(rest[idx:], ')')
		if end < 0 {
			return nil, errors.New(errors.ErrTypeParse, "unterminated version constraint in "+raw)
		}

		end += idx

		constraint := strings.TrimSpace(rest[idx+1 : end])

		op, verStr, err := splitOpVersion(constraint)
		if err != nil {
			return nil, err
		}

		v, err := version.Parse(verStr)
		if err != nil {
			return nil, err
		}

		atom.Op = op
		atom.Version = v
		atom.HasOp = true

		rest = rest[:idx] + rest[end+1:]
	}

	if idx := strings.IndexByte(rest, '['); idx >= 0 {
		end := strings.IndexByte(rest[idx:], ']')
		if end < 0 {
			return nil, errors.New(errors.ErrTypeParse, "unterminated architecture list in "+raw)
		}

		end += idx
		atom.Arches = strings.Fields(rest[idx+1 : end])
		rest = rest[:idx] + rest[end+1:]
	}

	if idx := strings.IndexByte(rest, '<'); idx >= 0 {
		end := strings.IndexByte(rest[idx:], '>')
		if end < 0 {
			return nil, errors.New(errors.ErrTypeParse, "unterminated profile list in "+raw)
		}

		end += idx
		atom.Profiles = strings.Fields(rest[idx+1 : end])
		rest = rest[:idx] + rest[end+1:]
	}

	atom.Name = strings.TrimSpace(rest)
	if atom.Name == "" {
		return nil, errors.New(errors.ErrTypeParse, "dependency atom missing a package name in "+raw)
	}

	return atom, nil
}

func splitOpVersion(constraint string) (version.Op, string, error) {
	for _, op := range []version.Op{
		version.OpLtLt, version.OpLe, version.OpGe, version.OpGtGt, version.OpEq,
	} {
		if strings.HasPrefix(constraint, string(op)) {
			return op, strings.TrimSpace(constraint[len(op):]), nil
		}
	}

	return "", "", errors.New(errors.ErrTypeParse, "unrecognized version operator in "+constraint)
}

// splitTop splits raw on sep, ignoring occurrences inside ()/[]/<>
// nesting, since a version constraint may itself be separated by the
// same literal character as the enclosing clause/atom delimiter.
func splitTop(raw string, sep byte) []string {
	var (
		parts  []string
		depth  int
		parens int
		start  int
	)

	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '(':
			parens++
		case ')':
			if parens > 0 {
				parens--
			}
		case '[', '<':
			// Inside parentheses '<' and '>' belong to a version
			// operator such as "<<" or ">=", not to a nesting level.
			if parens == 0 {
				depth++
			}
		case ']', '>':
			if parens == 0 && depth > 0 {
				depth--
			}
		default:
			if raw[i] == sep && depth == 0 && parens == 0 {
				parts = append(parts, raw[start:i])
				start = i + 1
			}
		}
	}

	parts = append(parts, raw[start:])

	return parts
}
