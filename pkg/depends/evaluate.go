package depends

import "github.com/dpkgo/dpkgo/pkg/version"

// Lookup answers whether name is known, and if so its installed
// version (if any) and the virtual packages it provides, per spec.md
// §4.C's lookup(name) predicate.
type Lookup func(name string) (known bool, installed version.Version, provides []string, arch string)

// Candidate records which atom of a clause a package name satisfied,
// used for the installed/selected/first-listed tie-break policy.
type Candidate struct {
	Atom        Atom
	Name        string
	IsInstalled bool
	IsSelected  bool
}

// Result is the outcome of evaluating one Expression.
type Result struct {
	Satisfied      bool
	FailingClauses []Clause
	SatisfiedAtoms map[string][]Atom // package name -> atoms it satisfied
}

// Selected reports whether name was already chosen for the current
// transaction, used by the evaluator's tie-break policy.
type Selected func(name string) bool

// Evaluate checks every clause of expr against lookup, selecting among
// alternatives per the tie-break policy: prefer an already-installed
// candidate, then one already selected for the current transaction,
// then the first listed in the clause.
func Evaluate(expr *Expression, lookup Lookup, selected Selected) Result {
	result := Result{Satisfied: true, SatisfiedAtoms: make(map[string][]Atom)}

	for _, clause := range expr.Clauses {
		best, ok := bestCandidate(clause, lookup, selected)
		if !ok {
			result.Satisfied = false
			result.FailingClauses = append(result.FailingClauses, clause)

			continue
		}

		result.SatisfiedAtoms[best.Name] = append(result.SatisfiedAtoms[best.Name], best.Atom)
	}

	return result
}

// bestCandidate returns the highest-priority satisfied atom in clause,
// per the installed > selected > first-listed tie-break.
func bestCandidate(clause Clause, lookup Lookup, selected Selected) (Candidate, bool) {
	var (
		firstSatisfied *Candidate
		selectedPick   *Candidate
		installedPick  *Candidate
	)

	for _, atom := range clause.Atoms {
		known, installedVer, provides, arch := lookup(atom.Name)
		if !atomSatisfiedBy(atom, known, installedVer, provides, arch) {
			continue
		}

		isInstalled := known && !installedVer.IsEmpty()
		isSelected := selected != nil && selected(atom.Name)

		cand := Candidate{Atom: atom, Name: atom.Name, IsInstalled: isInstalled, IsSelected: isSelected}

		if firstSatisfied == nil {
			firstSatisfied = &cand
		}

		if isInstalled && installedPick == nil {
			installedPick = &cand
		}

		if isSelected && selectedPick == nil {
			selectedPick = &cand
		}
	}

	switch {
	case installedPick != nil:
		return *installedPick, true
	case selectedPick != nil:
		return *selectedPick, true
	case firstSatisfied != nil:
		return *firstSatisfied, true
	default:
		return Candidate{}, false
	}
}

// atomSatisfiedBy reports whether a single atom is satisfied: lookup
// already folds virtual-package resolution into known (it reports
// known=true when some installed package Provides atom.Name), so a
// version constraint only ever applies to a directly-known package —
// a virtual package satisfies only version-less atoms.
func atomSatisfiedBy(atom Atom, known bool, installedVer version.Version, _ []string, _ string) bool {
	if !known {
		return false
	}

	if !atom.HasOp {
		return true
	}

	if installedVer.IsEmpty() {
		return false
	}

	ok, err := version.Satisfies(installedVer, atom.Op, atom.Version)

	return err == nil && ok
}
