// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"fmt"
	"strings"

	"github.com/choria-io/computed/repo"
)

// QuestionTree mirrors the part of a questionnaire that holds computed questions still
// needing evaluation.
//
// A tree is either a question leaf, holding the computed question and no children, or a
// section holding the named subtrees of its children that contain such questions. The
// section's children are kept in questionnaire order, this order is the tie break used
// when ordering evaluation.
//
// Trees are built fresh for every evaluation and discarded afterwards.
type QuestionTree struct {
	node     *repo.Node
	question bool
	children []*QuestionTree
	adopted  bool
}

// NewQuestionLeaf creates a leaf for a computed question
func NewQuestionLeaf(question *repo.Node) *QuestionTree {
	return &QuestionTree{node: question, question: true}
}

// NewSectionTree creates an empty section tree for a questionnaire or section node
func NewSectionTree(section *repo.Node) *QuestionTree {
	return &QuestionTree{node: section}
}

// Node is the questionnaire, section or question node the tree was built from
func (t *QuestionTree) Node() *repo.Node {
	return t.node
}

// Name is the name of the underlying node, unique among its siblings
func (t *QuestionTree) Name() string {
	return t.node.Name()
}

// IsQuestion reports whether this is a question leaf
func (t *QuestionTree) IsQuestion() bool {
	return t.question
}

// AddChild adds c as the child of a section, a subtree can only be added once and names
// must be unique within a section
func (t *QuestionTree) AddChild(c *QuestionTree) error {
	if t.question {
		return fmt.Errorf("question %s cannot have children", t.Name())
	}

	if t.Child(c.Name()) != nil {
		return fmt.Errorf("duplicate child %s in %s", c.Name(), t.Name())
	}

	err := c.setParent()
	if err != nil {
		return err
	}

	t.children = append(t.children, c)

	return nil
}

func (t *QuestionTree) setParent() error {
	if t.adopted {
		return fmt.Errorf("parent already set")
	}

	t.adopted = true

	return nil
}

// HasChildren reports whether a section holds any subtrees
func (t *QuestionTree) HasChildren() bool {
	return len(t.children) > 0
}

// Children are the subtrees in questionnaire order
func (t *QuestionTree) Children() []*QuestionTree {
	return append([]*QuestionTree(nil), t.children...)
}

// Child is the named subtree, nil when absent
func (t *QuestionTree) Child(name string) *QuestionTree {
	for _, c := range t.children {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// Questions are all question leaves depth first
func (t *QuestionTree) Questions() []*QuestionTree {
	if t.question {
		return []*QuestionTree{t}
	}

	var res []*QuestionTree
	for _, c := range t.children {
		res = append(res, c.Questions()...)
	}

	return res
}

func (t *QuestionTree) String() string {
	if t.question {
		return t.Name()
	}

	parts := make([]string, len(t.children))
	for i, c := range t.children {
		parts[i] = c.String()
	}

	return fmt.Sprintf("%s{%s}", t.Name(), strings.Join(parts, " "))
}
