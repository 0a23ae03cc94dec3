// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"context"
)

// Editor receives the changes of one node during a commit. The child methods return the
// editor that should receive the changes of that child subtree, or nil to skip the subtree.
//
// Before and after nodes passed to an editor are immutable snapshots, editors that need to
// change content do so through a Builder obtained when they were created.
type Editor interface {
	Enter(before *Node, after *Node) error
	Leave(before *Node, after *Node) error

	PropertyAdded(after Property) error
	PropertyChanged(before Property, after Property) error
	PropertyDeleted(before Property) error

	ChildAdded(name string, after *Node) (Editor, error)
	ChildChanged(name string, before *Node, after *Node) (Editor, error)
	ChildDeleted(name string, before *Node) (Editor, error)
}

// NopEditor ignores every change and does not descend, embed it to implement only some methods
type NopEditor struct{}

func (NopEditor) Enter(*Node, *Node) error { return nil }
func (NopEditor) Leave(*Node, *Node) error { return nil }
func (NopEditor) PropertyAdded(Property) error { return nil }
func (NopEditor) PropertyChanged(Property, Property) error { return nil }
func (NopEditor) PropertyDeleted(Property) error { return nil }
func (NopEditor) ChildAdded(string, *Node) (Editor, error) { return nil, nil }
func (NopEditor) ChildChanged(string, *Node, *Node) (Editor, error) { return nil, nil }
func (NopEditor) ChildDeleted(string, *Node) (Editor, error) { return nil, nil }

// CommitInfo describes the commit being processed
type CommitInfo struct {
	// UserID is the identity of the user on whose behalf the commit is made
	UserID string
}

// EditorProvider creates the root editor for a commit. The builder is the root of the tree
// being committed, changes made through it become part of the same commit.
type EditorProvider interface {
	RootEditor(ctx context.Context, before *Node, after *Node, builder *Builder, info CommitInfo) (Editor, error)
}

// Process feeds the differences between before and after into e, depth first. Properties are
// reported before children, children in the order they appear in after followed by deleted ones.
func Process(e Editor, before *Node, after *Node) error {
	if e == nil {
		return nil
	}

	err := e.Enter(before, after)
	if err != nil {
		return err
	}

	err = diffProperties(e, before, after)
	if err != nil {
		return err
	}

	err = diffChildren(e, before, after)
	if err != nil {
		return err
	}

	return e.Leave(before, after)
}

func diffProperties(e Editor, before *Node, after *Node) error {
	for _, name := range after.PropertyNames() {
		ap, _ := after.Property(name)
		bp, existed := before.Property(name)

		var err error
		switch {
		case !existed:
			err = e.PropertyAdded(ap)
		case !bp.Equal(ap):
			err = e.PropertyChanged(bp, ap)
		}
		if err != nil {
			return err
		}
	}

	for _, name := range before.PropertyNames() {
		if after.HasProperty(name) {
			continue
		}

		bp, _ := before.Property(name)
		err := e.PropertyDeleted(bp)
		if err != nil {
			return err
		}
	}

	return nil
}

func diffChildren(e Editor, before *Node, after *Node) error {
	for _, name := range after.ChildNames() {
		ac := after.Child(name)
		bc := before.Child(name)

		var child Editor
		var err error

		switch {
		case bc == nil:
			child, err = e.ChildAdded(name, ac)
		case !bc.Equal(ac):
			child, err = e.ChildChanged(name, bc, ac)
		default:
			continue
		}
		if err != nil {
			return err
		}

		err = Process(child, bc, ac)
		if err != nil {
			return err
		}
	}

	for _, name := range before.ChildNames() {
		if after.Child(name) != nil {
			continue
		}

		bc := before.Child(name)
		child, err := e.ChildDeleted(name, bc)
		if err != nil {
			return err
		}

		err = Process(child, bc, nil)
		if err != nil {
			return err
		}
	}

	return nil
}
