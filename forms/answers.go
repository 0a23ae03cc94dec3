// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"fmt"

	"github.com/choria-io/computed/repo"
)

// Resolver finds nodes by identifier, typically a repo.Session
type Resolver interface {
	NodeByIdentifier(id string) (*repo.Node, error)
}

// CollectAnswers gathers the values of all answers in a form or answer section by the name of
// the question they answer. When a question is answered more than once, as happens in
// recurring sections, the first answer in form order is used.
func CollectAnswers(n *repo.Node, questions Resolver) map[string]any {
	res := map[string]any{}
	collectAnswers(n, questions, res)

	return res
}

func collectAnswers(n *repo.Node, questions Resolver, res map[string]any) {
	switch {
	case IsForm(n) || IsAnswerSection(n):
		for _, child := range n.Children() {
			collectAnswers(child, questions, res)
		}

	case IsAnswer(n):
		value := ValueOf(n)
		if value == nil {
			return
		}

		question, err := questions.NodeByIdentifier(QuestionReference(n))
		if err != nil {
			return
		}

		name := QuestionName(question)
		if name == "" {
			return
		}

		if _, ok := res[name]; !ok {
			res[name] = value
		}
	}
}

// Export renders a form as a nested map keyed by question and section names. Recurring
// sections are lists with one entry per instance, answers without values are omitted.
func Export(form *repo.Node, nodes Resolver) (map[string]any, error) {
	if !IsForm(form) && !IsAnswerSection(form) {
		return nil, fmt.Errorf("%s is not a form", form.Path())
	}

	res := map[string]any{}

	for _, child := range form.Children() {
		switch {
		case IsAnswerSection(child):
			section, err := nodes.NodeByIdentifier(SectionReference(child))
			if err != nil {
				return nil, fmt.Errorf("section of %s: %w", child.Path(), err)
			}

			values, err := Export(child, nodes)
			if err != nil {
				return nil, err
			}

			if !IsRecurrent(section) {
				res[section.Name()] = values
				continue
			}

			list, _ := res[section.Name()].([]any)
			res[section.Name()] = append(list, values)

		case IsAnswer(child):
			value := ValueOf(child)
			if value == nil {
				continue
			}

			question, err := nodes.NodeByIdentifier(QuestionReference(child))
			if err != nil {
				return nil, fmt.Errorf("question of %s: %w", child.Path(), err)
			}

			res[question.Name()] = value
		}
	}

	return res, nil
}
