// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package computed

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrDependencyCycle indicates computed questions that depend on each other
var ErrDependencyCycle = errors.New("dependency cycle")

// DependencyMap maps names of computed questions to the names of the computed questions
// they depend on. Names and dependencies keep the order they were added in.
type DependencyMap struct {
	keys []string
	deps map[string][]string
}

// NewDependencyMap creates an empty dependency map
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{deps: map[string][]string{}}
}

// Add records name with dependencies deps, adding a name more than once merges its dependencies
func (m *DependencyMap) Add(name string, deps ...string) {
	current, ok := m.deps[name]
	if !ok {
		m.keys = append(m.keys, name)
	}

	for _, d := range deps {
		if !slices.Contains(current, d) {
			current = append(current, d)
		}
	}

	m.deps[name] = current
}

// Keys are the names in the map in the order they were added
func (m *DependencyMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Dependencies are the dependencies of name
func (m *DependencyMap) Dependencies(name string) []string {
	return append([]string(nil), m.deps[name]...)
}

// Len is the number of names in the map
func (m *DependencyMap) Len() int {
	return len(m.keys)
}

// Has reports whether name is in the map
func (m *DependencyMap) Has(name string) bool {
	_, ok := m.deps[name]
	return ok
}

// Order lists the names in m so that every name comes after its dependencies. Dependencies
// that are not names in m are ignored.
//
// Names are marked as visited when their visit starts, members of a cycle are therefore
// still listed exactly once but without any guarantee about their relative order.
func Order(m *DependencyMap) []string {
	visited := map[string]bool{}
	res := make([]string, 0, len(m.keys))

	var visit func(name string)
	visit = func(name string) {
		visited[name] = true

		for _, d := range m.deps[name] {
			if m.Has(d) && !visited[d] {
				visit(d)
			}
		}

		res = append(res, name)
	}

	for _, name := range m.keys {
		if !visited[name] {
			visit(name)
		}
	}

	return res
}

// FindCycle finds the first dependency cycle in m, the result starts and ends with the same
// name. Nil when there are no cycles.
func FindCycle(m *DependencyMap) []string {
	const (
		unvisited = iota
		visiting
		done
	)

	state := map[string]int{}
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = visiting
		stack = append(stack, name)

		for _, d := range m.deps[name] {
			if !m.Has(d) {
				continue
			}

			switch state[d] {
			case visiting:
				for i, n := range stack {
					if n == d {
						cycle := append([]string(nil), stack[i:]...)
						return append(cycle, d)
					}
				}

			case unvisited:
				if cycle := visit(d); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done

		return nil
	}

	for _, name := range m.keys {
		if state[name] != unvisited {
			continue
		}

		if cycle := visit(name); cycle != nil {
			return cycle
		}
	}

	return nil
}

// OrderStrict is like Order but fails with ErrDependencyCycle when m has a cycle
func OrderStrict(m *DependencyMap) ([]string, error) {
	cycle := FindCycle(m)
	if cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> "))
	}

	return Order(m), nil
}
