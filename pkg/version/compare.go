package version

import "github.com/dpkgo/dpkgo/pkg/errors"

// Op is one of the relational operators spec.md §6.3/§4.D recognizes,
// plus the "-nl" variants original wpkg's --compare-versions exposes.
type Op string

const (
	OpLtLt Op = "<<"
	OpLe   Op = "<="
	OpEq   Op = "="
	OpGe   Op = ">="
	OpGtGt Op = ">>"

	OpLtNL Op = "lt-nl"
	OpLeNL Op = "le-nl"
	OpEqNL Op = "eq-nl"
	OpGeNL Op = "ge-nl"
	OpGtNL Op = "gt-nl"
)

var plainRelations = map[Op]func(c int) bool{
	OpLtLt: func(c int) bool { return c < 0 },
	OpLe:   func(c int) bool { return c <= 0 },
	OpEq:   func(c int) bool { return c == 0 },
	OpGe:   func(c int) bool { return c >= 0 },
	OpGtGt: func(c int) bool { return c > 0 },
}

var nlToPlain = map[Op]Op{
	OpLtNL: OpLtLt,
	OpLeNL: OpLe,
	OpEqNL: OpEq,
	OpGeNL: OpGe,
	OpGtNL: OpGtGt,
}

// reflexiveNL reports whether an -nl operator still holds when both
// operands are empty (spec.md S7: "" eq-nl "" exits 0).
var reflexiveNL = map[Op]bool{
	OpEqNL: true,
	OpLeNL: true,
	OpGeNL: true,
}

// Satisfies reports whether the relation op holds between a and b.
func Satisfies(a Version, op Op, b Version) (bool, error) {
	if plain, ok := nlToPlain[op]; ok {
		switch {
		case a.IsEmpty() && b.IsEmpty():
			return reflexiveNL[op], nil
		case a.IsEmpty() || b.IsEmpty():
			// Either (but not both) operand empty never satisfies an
			// -nl relation, per spec.md S7.
			return false, nil
		default:
			return Satisfies(a, plain, b)
		}
	}

	relation, ok := plainRelations[op]
	if !ok {
		return false, errors.New(errors.ErrTypeParameter, "unknown version operator "+string(op))
	}

	return relation(Compare(a, b)), nil
}

// SatisfiesString parses a and b and evaluates op against them, the
// entry point for --compare-versions.
func SatisfiesString(rawA string, op Op, rawB string) (bool, error) {
	a, err := Parse(rawA)
	if err != nil {
		return false, err
	}

	b, err := Parse(rawB)
	if err != nil {
		return false, err
	}

	return Satisfies(a, op, b)
}
