// Package set provides a generic string set and a topological sort used to
// order package unpack/configure steps by their dependency graph.
package set

import (
	"slices"

	"github.com/dpkgo/dpkgo/pkg/errors"
)

var exists = struct{}{}

// Set represents a simple set data structure implemented using a map.
type Set struct {
	m map[string]struct{}
}

// NewSet creates a new Set.
func NewSet() *Set {
	s := &Set{
		m: make(map[string]struct{}),
	}

	return s
}

// Add adds a value to the Set.
func (s *Set) Add(value string) {
	s.m[value] = exists
}

// Contains checks if the given value is present in the set.
func (s *Set) Contains(value string) bool {
	_, c := s.m[value]

	return c
}

// Len returns the number of elements in the set.
func (s *Set) Len() int {
	return len(s.m)
}

// Iter returns a channel that iterates over the elements of the set.
func (s *Set) Iter() <-chan string {
	iter := make(chan string)

	go func() {
		for key := range s.m {
			iter <- key
		}

		close(iter)
	}()

	return iter
}

// Remove removes the specified value from the set.
func (s *Set) Remove(value string) {
	delete(s.m, value)
}

// Contains checks if a string is present in an array of strings.
func Contains(array []string, str string) bool {
	return slices.Contains(array, str)
}

// TopoSort orders nodes so that every edges[n] (the nodes n depends on)
// appears before n in the result, matching the installer's requirement
// that Pre-Depends be satisfied before a package is unpacked and
// Pre-Depends∪Depends before it is configured. Returns a dependency
// error naming the first node found in a cycle.
func TopoSort(nodes []string, edges map[string][]string) ([]string, error) {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(nodes))
	order := make([]string, 0, len(nodes))

	var visit func(node string) error

	visit = func(node string) error {
		switch state[node] {
		case visited:
			return nil
		case visiting:
			return errors.New(errors.ErrTypeDependency, "dependency cycle detected at "+node)
		}

		state[node] = visiting

		for _, dep := range edges[node] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		state[node] = visited

		order = append(order, node)

		return nil
	}

	for _, node := range nodes {
		if err := visit(node); err != nil {
			return nil, err
		}
	}

	return order, nil
}
