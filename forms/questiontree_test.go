// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"github.com/choria-io/computed/repo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("QuestionTree", func() {
	var root *repo.Builder

	node := func(name string) *repo.Node {
		c, err := root.SetChild(name)
		Expect(err).ToNot(HaveOccurred())
		return c.State()
	}

	BeforeEach(func() {
		root = repo.NewBuilder(nil)
	})

	It("Should keep children in insertion order", func() {
		s := NewSectionTree(node("s"))
		Expect(s.AddChild(NewQuestionLeaf(node("b")))).To(Succeed())
		Expect(s.AddChild(NewQuestionLeaf(node("a")))).To(Succeed())

		Expect(s.IsQuestion()).To(BeFalse())
		Expect(s.HasChildren()).To(BeTrue())
		Expect(s.Child("a").Name()).To(Equal("a"))
		Expect(s.Child("c")).To(BeNil())
		Expect(s.String()).To(Equal("s{b a}"))
	})

	It("Should reject setting parent twice", func() {
		leaf := NewQuestionLeaf(node("q"))
		s1 := NewSectionTree(node("s1"))
		s2 := NewSectionTree(node("s2"))

		Expect(s1.AddChild(leaf)).To(Succeed())
		Expect(s2.AddChild(leaf)).To(MatchError("parent already set"))
	})

	It("Should reject duplicate names and children of questions", func() {
		s := NewSectionTree(node("s"))
		Expect(s.AddChild(NewQuestionLeaf(node("q")))).To(Succeed())
		Expect(s.AddChild(NewQuestionLeaf(node("q")))).To(MatchError("duplicate child q in s"))

		leaf := NewQuestionLeaf(node("x"))
		Expect(leaf.AddChild(NewQuestionLeaf(node("y")))).To(MatchError("question x cannot have children"))
	})

	It("Should list questions depth first", func() {
		s := NewSectionTree(node("s"))
		inner := NewSectionTree(node("inner"))
		Expect(inner.AddChild(NewQuestionLeaf(node("b")))).To(Succeed())
		Expect(s.AddChild(NewQuestionLeaf(node("a")))).To(Succeed())
		Expect(s.AddChild(inner)).To(Succeed())
		Expect(s.AddChild(NewQuestionLeaf(node("c")))).To(Succeed())

		var names []string
		for _, q := range s.Questions() {
			names = append(names, q.Name())
		}
		Expect(names).To(Equal([]string{"a", "b", "c"}))
	})
})
