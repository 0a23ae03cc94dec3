// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"time"

	"github.com/choria-io/computed/repo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Synthesizer", func() {
	var (
		store *repo.Store
		qn    *repo.Node
		root  *repo.Builder
		form  *repo.Builder
		log   *testLogger
		syn   *Synthesizer
		tree  *QuestionTree
	)

	BeforeEach(func() {
		var err error

		store, qn = installVitals()
		log = &testLogger{}
		root = repo.NewBuilder(store.Root())
		form, err = NewForm(root, qn, "patient-1", WithNameGenerator(counter("form")))
		Expect(err).ToNot(HaveOccurred())

		syn = NewSynthesizer(log, WithCreator("computed"), WithClock(ticker()), WithNameGenerator(counter("n")))
		tree = BuildUnansweredTree(qn, nil, log)
	})

	sections := func(b *repo.Builder) []*repo.Builder {
		var res []*repo.Builder
		for _, name := range b.ChildNames() {
			if c := b.Child(name); IsAnswerSection(c) {
				res = append(res, c)
			}
		}
		return res
	}

	It("Should create computed answers and recurring sections", func() {
		bindings := syn.Materialize(tree, form)
		Expect(bindings).To(HaveLen(4))
		Expect(bindings[0].Question.Name()).To(Equal("bmi"))
		for _, b := range bindings[1:] {
			Expect(b.Question.Name()).To(Equal("doubled"))
		}

		Expect(form.ChildNames()).To(Equal([]string{"n1", "n2", "n4", "n6"}))
		Expect(sections(form)).To(HaveLen(3))

		bmi := form.Child("n1")
		Expect(repo.PrimaryType(bmi)).To(Equal(ComputedAnswerType))
		Expect(QuestionReference(bmi)).To(Equal(qn.Child("bmi").Identifier()))
		Expect(StringProperty(bmi, repo.ResourceTypeProperty)).To(Equal(ComputedAnswerResource))
		Expect(StringProperty(bmi, repo.ResourceSuperTypeProperty)).To(Equal(AnswerResource))
		Expect(StringProperty(bmi, repo.CreatedByProperty)).To(Equal("computed"))
		Expect(bmi.HasProperty(ValueProperty)).To(BeFalse())

		flags, ok := bmi.Property(StatusFlagsProperty)
		Expect(ok).To(BeTrue())
		Expect(flags.Array).To(BeTrue())
		Expect(flags.Count()).To(Equal(0))

		section := form.Child("n2")
		Expect(SectionReference(section)).To(Equal(qn.Child("visits").Identifier()))
		Expect(StringProperty(section, repo.ResourceSuperTypeProperty)).To(Equal(BaseResource))

		doubled := section.Child("n3")
		Expect(repo.PrimaryType(doubled)).To(Equal("cards:LongAnswer"))
		Expect(QuestionReference(doubled)).To(Equal(qn.Child("visits").Child("doubled").Identifier()))
	})

	It("Should be idempotent", func() {
		first := syn.Materialize(tree, form)
		state := form.State()

		second := syn.Materialize(tree, form)
		Expect(form.State().Equal(state)).To(BeTrue())
		Expect(second).To(HaveLen(len(first)))

		for i := range first {
			Expect(second[i].Answer.Path()).To(Equal(first[i].Answer.Path()))
		}

		created, _ := form.Child("n1").Property(repo.CreatedProperty)
		Expect(created.Value()).To(Equal(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)))
	})

	It("Should top up recurring sections", func() {
		Expect(WriteAnswers(form, qn, map[string]any{
			"visits": []any{map[string]any{"systolic": 120}},
		}, WithNameGenerator(counter("given")))).To(Succeed())
		Expect(sections(form)).To(HaveLen(1))

		bindings := syn.Materialize(tree, form)
		Expect(sections(form)).To(HaveLen(3))
		Expect(bindings).To(HaveLen(4))

		existing := form.Child("given1")
		Expect(existing.ChildNames()).To(HaveLen(2))
		Expect(bindings[1].Answer.Path()).To(HavePrefix(existing.Path() + "/"))
	})

	It("Should reuse existing answers", func() {
		Expect(WriteAnswers(form, qn, map[string]any{"bmi": "22"}, WithNameGenerator(counter("given")))).To(Succeed())

		bindings := syn.Materialize(tree, form)
		Expect(bindings[0].Answer.Name()).To(Equal("given1"))
		Expect(ValueOf(bindings[0].Answer)).To(Equal("22"))
	})
})
