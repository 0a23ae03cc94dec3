// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"github.com/choria-io/computed/repo"
)

// BuildUnansweredTree walks a questionnaire or section and returns the tree of computed
// questions below it that need evaluation, nil when there are none. Questions whose
// identifier is in modified were given a value by the client and are left alone.
func BuildUnansweredTree(n *repo.Node, modified map[string]bool, log Logger) *QuestionTree {
	if n == nil {
		return nil
	}

	switch {
	case IsComputedQuestion(n):
		if modified[n.Identifier()] {
			return nil
		}

		return NewQuestionLeaf(n)

	case IsQuestionnaire(n) || IsSection(n):
		tree := NewSectionTree(n)

		for _, child := range n.Children() {
			ct := BuildUnansweredTree(child, modified, log)
			if ct == nil {
				continue
			}

			err := tree.AddChild(ct)
			if err != nil {
				log.Warnf("Skipping %s: %v", child.Path(), err)
			}
		}

		if !tree.HasChildren() {
			return nil
		}

		return tree

	default:
		return nil
	}
}
