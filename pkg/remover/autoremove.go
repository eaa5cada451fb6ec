package remover

import (
	"sort"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/depends"
)

// ComputeAutoRemovable returns the installed packages whose selection
// is "auto" and which are not, even transitively, depended upon by any
// "manual" (or unset, i.e. normal) package, per spec.md §4.G's
// autoremove predicate. The result is sorted for deterministic output.
func ComputeAutoRemovable(mgr *admin.Manager) ([]string, error) {
	installed, err := mgr.ListInstalledPackages()
	if err != nil {
		return nil, err
	}

	depended := make(map[string]bool)
	visited := make(map[string]bool)

	var autoSelected []string

	for _, name := range installed {
		selection, _ := mgr.GetField(name, "X-Selection")
		if selection == "auto" {
			autoSelected = append(autoSelected, name)
			continue
		}

		markDependencyClosure(mgr, name, depended, visited)
	}

	var result []string

	for _, name := range autoSelected {
		if !depended[name] {
			result = append(result, name)
		}
	}

	sort.Strings(result)

	return result, nil
}

// markDependencyClosure marks every package reachable from name via
// Pre-Depends/Depends as depended-upon, recursing through the full
// transitive closure regardless of the reached packages' own selection.
func markDependencyClosure(mgr *admin.Manager, name string, depended, visited map[string]bool) {
	if visited[name] {
		return
	}

	visited[name] = true

	file, err := mgr.LoadPackage(name)
	if err != nil {
		return
	}

	for _, fieldName := range []string{"Pre-Depends", "Depends"} {
		field, ok := file.Get(fieldName)
		if !ok || field.Value == "" {
			continue
		}

		expr, err := depends.Parse(field.Value)
		if err != nil {
			continue
		}

		for _, clause := range expr.Clauses {
			for _, atom := range clause.Atoms {
				depended[atom.Name] = true
				markDependencyClosure(mgr, atom.Name, depended, visited)
			}
		}
	}
}
