// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"path"
)

// Well known property names shared by every node
const (
	PrimaryTypeProperty       = "jcr:primaryType"
	IdentifierProperty        = "jcr:uuid"
	CreatedProperty           = "jcr:created"
	CreatedByProperty         = "jcr:createdBy"
	ResourceTypeProperty      = "sling:resourceType"
	ResourceSuperTypeProperty = "sling:resourceSuperType"
)

// Reader is the read access shared by immutable nodes and builders
type Reader interface {
	Name() string
	Path() string
	Property(name string) (Property, bool)
	HasProperty(name string) bool
	PropertyNames() []string
	ChildNames() []string
}

// Node is an immutable snapshot of a node and its subtree. A nil *Node is a node that
// does not exist, all read methods are safe to call on it.
type Node struct {
	name      string
	path      string
	props     map[string]Property
	propOrder []string
	children  map[string]*Node
	order     []string
}

func newNode(name string, p string) *Node {
	return &Node{
		name:     name,
		path:     p,
		props:    map[string]Property{},
		children: map[string]*Node{},
	}
}

// NewRoot creates an empty root node
func NewRoot() *Node {
	return newNode("", "/")
}

func (n *Node) Name() string {
	if n == nil {
		return ""
	}

	return n.name
}

func (n *Node) Path() string {
	if n == nil {
		return ""
	}

	return n.path
}

func (n *Node) Property(name string) (Property, bool) {
	if n == nil {
		return Property{}, false
	}

	p, ok := n.props[name]
	if !ok {
		return Property{}, false
	}

	return p.clone(), true
}

func (n *Node) HasProperty(name string) bool {
	if n == nil {
		return false
	}

	_, ok := n.props[name]

	return ok
}

// PropertyNames lists property names in the order they were first set
func (n *Node) PropertyNames() []string {
	if n == nil {
		return nil
	}

	return append([]string(nil), n.propOrder...)
}

// ChildNames lists child names in insertion order
func (n *Node) ChildNames() []string {
	if n == nil {
		return nil
	}

	return append([]string(nil), n.order...)
}

// Child is the named child, nil when it does not exist
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}

	return n.children[name]
}

// Children are all children in insertion order
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}

	res := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		res = append(res, n.children[name])
	}

	return res
}

// Identifier is the stable identifier of the node, its path when it has none assigned
func (n *Node) Identifier() string {
	return Identifier(n)
}

// Equal deeply compares two subtrees, including property and child order
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == nil && o == nil
	}

	if len(n.propOrder) != len(o.propOrder) || len(n.order) != len(o.order) {
		return false
	}

	for i, name := range n.propOrder {
		if o.propOrder[i] != name || !n.props[name].Equal(o.props[name]) {
			return false
		}
	}

	for i, name := range n.order {
		if o.order[i] != name || !n.children[name].Equal(o.children[name]) {
			return false
		}
	}

	return true
}

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}

	c := newNode(n.name, n.path)
	c.propOrder = append([]string(nil), n.propOrder...)
	for k, v := range n.props {
		c.props[k] = v.clone()
	}

	c.order = append([]string(nil), n.order...)
	for k, v := range n.children {
		c.children[k] = v.clone()
	}

	return c
}

// Identifier is the jcr:uuid of r, or its path when it has none
func Identifier(r Reader) string {
	if r == nil {
		return ""
	}

	p, ok := r.Property(IdentifierProperty)
	if ok && p.String() != "" {
		return p.String()
	}

	return r.Path()
}

// PrimaryType is the jcr:primaryType of r, empty when unset
func PrimaryType(r Reader) string {
	p, ok := r.Property(PrimaryTypeProperty)
	if !ok {
		return ""
	}

	return p.String()
}

func childPath(parent string, name string) string {
	return path.Join(parent, name)
}
