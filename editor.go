// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package computed

import (
	"context"

	"github.com/choria-io/computed/forms"
	"github.com/choria-io/computed/repo"
)

// formEditor descends through a commit until it finds forms, once a changed form is left
// its computed answers are calculated
type formEditor struct {
	engine  *Engine
	ctx     context.Context
	info    repo.CommitInfo
	builder *repo.Builder
	tracker *changeTracker
	isForm  bool
	changed bool
}

func newFormEditor(ctx context.Context, e *Engine, builder *repo.Builder, info repo.CommitInfo) *formEditor {
	return &formEditor{
		engine:  e,
		ctx:     ctx,
		info:    info,
		builder: builder,
		tracker: newChangeTracker(),
	}
}

func (f *formEditor) Enter(_ *repo.Node, after *repo.Node) error {
	f.isForm = forms.IsForm(after)
	return nil
}

func (f *formEditor) Leave(_ *repo.Node, _ *repo.Node) error {
	if f.isForm && f.changed {
		f.engine.computeForm(f.ctx, f.builder, f.tracker.modified, f.info)
	}

	return nil
}

func (f *formEditor) PropertyAdded(repo.Property) error { return nil }
func (f *formEditor) PropertyChanged(repo.Property, repo.Property) error { return nil }
func (f *formEditor) PropertyDeleted(repo.Property) error { return nil }

func (f *formEditor) ChildAdded(name string, _ *repo.Node) (repo.Editor, error) {
	return f.child(name), nil
}

func (f *formEditor) ChildChanged(name string, _ *repo.Node, _ *repo.Node) (repo.Editor, error) {
	return f.child(name), nil
}

func (f *formEditor) ChildDeleted(string, *repo.Node) (repo.Editor, error) {
	return nil, nil
}

func (f *formEditor) child(name string) repo.Editor {
	if f.isForm {
		f.changed = true
		return f.tracker
	}

	cb := f.builder.Child(name)
	if cb == nil {
		return nil
	}

	return newFormEditor(f.ctx, f.engine, cb, f.info)
}

// changeTracker records the questions of answers changed within a form, these hold values
// set by the client that should not be recomputed
type changeTracker struct {
	modified map[string]bool
	node     *repo.Node
}

func newChangeTracker() *changeTracker {
	return &changeTracker{modified: map[string]bool{}}
}

func (t *changeTracker) Enter(_ *repo.Node, after *repo.Node) error {
	t.node = after
	return nil
}

func (t *changeTracker) Leave(*repo.Node, *repo.Node) error { return nil }

func (t *changeTracker) PropertyAdded(repo.Property) error {
	t.record()
	return nil
}

func (t *changeTracker) PropertyChanged(repo.Property, repo.Property) error {
	t.record()
	return nil
}

func (t *changeTracker) PropertyDeleted(repo.Property) error {
	t.record()
	return nil
}

func (t *changeTracker) ChildAdded(string, *repo.Node) (repo.Editor, error) {
	return &changeTracker{modified: t.modified}, nil
}

func (t *changeTracker) ChildChanged(string, *repo.Node, *repo.Node) (repo.Editor, error) {
	return &changeTracker{modified: t.modified}, nil
}

func (t *changeTracker) ChildDeleted(string, *repo.Node) (repo.Editor, error) {
	return nil, nil
}

func (t *changeTracker) record() {
	if !forms.IsAnswer(t.node) {
		return
	}

	if q := forms.QuestionReference(t.node); q != "" {
		t.modified[q] = true
	}
}
