// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"time"

	"github.com/choria-io/computed/repo"
	"github.com/google/uuid"
)

// Logger is the logging interface used by the form tree operations
type Logger interface {
	Debugf(format string, a ...any)
	Warnf(format string, a ...any)
	Errorf(format string, a ...any)
}

// Option configures how new form nodes are created
type Option func(*settings)

type settings struct {
	user    string
	now     func() time.Time
	newName func() string
}

func newSettings(opts ...Option) *settings {
	s := &settings{
		now:     time.Now,
		newName: uuid.NewString,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// WithCreator sets the user recorded as the creator of new nodes
func WithCreator(user string) Option {
	return func(s *settings) {
		s.user = user
	}
}

// WithClock sets the source of creation times
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithNameGenerator sets the generator of names for new nodes, random UUIDs by default
func WithNameGenerator(f func() string) Option {
	return func(s *settings) {
		s.newName = f
	}
}

// Binding associates a question leaf with an answer node that holds its value
type Binding struct {
	Question *QuestionTree
	Answer   *repo.Builder
}

// Synthesizer creates the answer sections and answers that hold computed values
type Synthesizer struct {
	log Logger
	s   *settings
}

// NewSynthesizer creates a synthesizer logging to log
func NewSynthesizer(log Logger, opts ...Option) *Synthesizer {
	return &Synthesizer{log: log, s: newSettings(opts...)}
}

// Materialize makes sure node, a form or answer section, holds answer nodes for every
// question in tree, creating missing answer sections and answers. Recurring sections are
// created until they reach their initial number of instances. Existing nodes are reused
// without modification so repeated runs change nothing, every run returns a binding for
// each answer node of each question, in tree order.
func (s *Synthesizer) Materialize(tree *QuestionTree, node *repo.Builder) []Binding {
	if tree.IsQuestion() {
		if !node.HasProperty(repo.PrimaryTypeProperty) {
			initAnswer(node, tree.Node(), s.s)
		}

		return []Binding{{Question: tree, Answer: node}}
	}

	if !node.HasProperty(repo.PrimaryTypeProperty) {
		initAnswerSection(node, tree.Node())
	}

	existing := childrenByReference(node)

	var res []Binding
	for _, child := range tree.Children() {
		ref := child.Node().Identifier()
		if ref == "" {
			s.log.Errorf("Cannot determine the identifier of %s, skipping", child.Name())
			continue
		}

		expected := InstanceCount(child.Node())
		matching := existing[ref]

		for _, cb := range matching {
			res = append(res, s.Materialize(child, cb)...)
		}

		for i := len(matching); i < expected; i++ {
			cb, err := node.SetChild(s.s.newName())
			if err != nil {
				s.log.Errorf("Could not create a node for %s in %s: %v", child.Name(), node.Path(), err)
				break
			}

			res = append(res, s.Materialize(child, cb)...)
		}
	}

	return res
}

// childrenByReference groups the answer sections and answers below node by the identifier
// of the section or question they reference, keeping node order
func childrenByReference(node *repo.Builder) map[string][]*repo.Builder {
	res := map[string][]*repo.Builder{}

	for _, name := range node.ChildNames() {
		child := node.Child(name)

		var ref string
		switch {
		case IsAnswerSection(child):
			ref = SectionReference(child)
		case IsAnswer(child):
			ref = QuestionReference(child)
		default:
			continue
		}

		res[ref] = append(res[ref], child)
	}

	return res
}

func initAnswer(node *repo.Builder, question *repo.Node, s *settings) {
	types := AnswerTypes(question)

	node.SetProperty(repo.NewProperty(repo.CreatedProperty, repo.TypeDate, s.now()))
	node.SetProperty(repo.NewProperty(repo.CreatedByProperty, repo.TypeName, s.user))
	node.SetProperty(repo.NewProperty(QuestionProperty, repo.TypeReference, question.Identifier()))
	node.SetProperty(repo.NewProperty(repo.PrimaryTypeProperty, repo.TypeName, types.PrimaryType))
	node.SetProperty(repo.NewProperty(repo.ResourceSuperTypeProperty, repo.TypeString, AnswerResource))
	node.SetProperty(repo.NewProperty(repo.ResourceTypeProperty, repo.TypeString, types.ResourceType))
	node.SetProperty(repo.NewArrayProperty(StatusFlagsProperty, repo.TypeString))
}

func initAnswerSection(node *repo.Builder, section *repo.Node) {
	node.SetProperty(repo.NewProperty(SectionProperty, repo.TypeReference, section.Identifier()))
	node.SetProperty(repo.NewProperty(repo.PrimaryTypeProperty, repo.TypeName, AnswerSectionType))
	node.SetProperty(repo.NewProperty(repo.ResourceSuperTypeProperty, repo.TypeString, BaseResource))
	node.SetProperty(repo.NewProperty(repo.ResourceTypeProperty, repo.TypeString, AnswerSectionResource))
	node.SetProperty(repo.NewArrayProperty(StatusFlagsProperty, repo.TypeString))
}
