// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"fmt"
	"strings"
)

// Builder is a mutable view of a node that is being edited within a commit. Changes made
// through a builder are visible immediately to every other builder of the same tree.
type Builder struct {
	node *Node
}

// NewBuilder creates a builder over a private copy of n, n itself is never modified
func NewBuilder(n *Node) *Builder {
	if n == nil {
		n = NewRoot()
	}

	return &Builder{node: n.clone()}
}

func (b *Builder) Name() string {
	return b.node.Name()
}

func (b *Builder) Path() string {
	return b.node.Path()
}

func (b *Builder) Property(name string) (Property, bool) {
	return b.node.Property(name)
}

func (b *Builder) HasProperty(name string) bool {
	return b.node.HasProperty(name)
}

func (b *Builder) PropertyNames() []string {
	return b.node.PropertyNames()
}

func (b *Builder) ChildNames() []string {
	return b.node.ChildNames()
}

// SetProperty adds or replaces a property, replaced properties keep their position
func (b *Builder) SetProperty(p Property) {
	p = p.clone()

	if _, ok := b.node.props[p.Name]; !ok {
		b.node.propOrder = append(b.node.propOrder, p.Name)
	}

	b.node.props[p.Name] = p
}

// RemoveProperty removes the named property and reports whether it existed
func (b *Builder) RemoveProperty(name string) bool {
	if _, ok := b.node.props[name]; !ok {
		return false
	}

	delete(b.node.props, name)
	for i, n := range b.node.propOrder {
		if n == name {
			b.node.propOrder = append(b.node.propOrder[:i], b.node.propOrder[i+1:]...)
			break
		}
	}

	return true
}

// HasChild reports whether the named child exists
func (b *Builder) HasChild(name string) bool {
	_, ok := b.node.children[name]
	return ok
}

// Child is a builder for an existing child, nil when there is no such child
func (b *Builder) Child(name string) *Builder {
	c, ok := b.node.children[name]
	if !ok {
		return nil
	}

	return &Builder{node: c}
}

// SetChild creates an empty child called name, replacing any existing child of that name
func (b *Builder) SetChild(name string) (*Builder, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid node name %q", name)
	}

	if _, ok := b.node.children[name]; !ok {
		b.node.order = append(b.node.order, name)
	}

	c := newNode(name, childPath(b.node.path, name))
	b.node.children[name] = c

	return &Builder{node: c}, nil
}

// ChildOrCreate returns the named child, creating an empty one when it does not exist
func (b *Builder) ChildOrCreate(name string) (*Builder, error) {
	if c := b.Child(name); c != nil {
		return c, nil
	}

	return b.SetChild(name)
}

// RemoveChild removes the named child and its subtree and reports whether it existed
func (b *Builder) RemoveChild(name string) bool {
	if _, ok := b.node.children[name]; !ok {
		return false
	}

	delete(b.node.children, name)
	for i, n := range b.node.order {
		if n == name {
			b.node.order = append(b.node.order[:i], b.node.order[i+1:]...)
			break
		}
	}

	return true
}

// Descendant walks a slash separated relative path, nil when any step is missing
func (b *Builder) Descendant(rel string) *Builder {
	cur := b
	for _, part := range strings.Split(strings.Trim(rel, "/"), "/") {
		if part == "" {
			continue
		}

		cur = cur.Child(part)
		if cur == nil {
			return nil
		}
	}

	return cur
}

// State is an immutable snapshot of the builder's current subtree
func (b *Builder) State() *Node {
	return b.node.clone()
}
