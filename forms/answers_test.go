// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"context"

	"github.com/choria-io/computed/repo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Answers", func() {
	var (
		store *repo.Store
		qn    *repo.Node
	)

	BeforeEach(func() {
		store, qn = installVitals()
	})

	// commitForm creates a form holding answers and returns its committed state
	commitForm := func(answers map[string]any) *repo.Node {
		var path string

		Expect(store.Commit(context.Background(), repo.CommitInfo{UserID: "bob"}, func(root *repo.Builder) error {
			form, err := NewForm(root, qn, "patient-1", WithCreator("bob"))
			if err != nil {
				return err
			}
			path = form.Path()

			return WriteAnswers(form, qn, answers)
		})).To(Succeed())

		sess := store.Login("bob")
		form, err := sess.Node(path)
		Expect(err).ToNot(HaveOccurred())

		return form
	}

	Describe("NewForm", func() {
		It("Should reference the questionnaire and subject", func() {
			form := commitForm(nil)

			Expect(IsForm(form)).To(BeTrue())
			Expect(QuestionnaireReference(form)).To(Equal(qn.Identifier()))

			subject, err := store.Login("bob").NodeByIdentifier(StringProperty(form, SubjectProperty))
			Expect(err).ToNot(HaveOccurred())
			Expect(subject.Path()).To(Equal("/Subjects/patient-1"))
			Expect(StringProperty(form, repo.CreatedByProperty)).To(Equal("bob"))
		})

		It("Should only accept questionnaires", func() {
			_, err := NewForm(repo.NewBuilder(store.Root()), qn.Child("weight"), "x")
			Expect(err).To(MatchError("/Questionnaires/vitals/weight is not a questionnaire"))
		})
	})

	Describe("WriteAnswers", func() {
		It("Should store values using the answer type", func() {
			form := commitForm(map[string]any{"weight": "80", "height": 1.8, "notes": "fine"})

			Expect(form.ChildNames()).To(HaveLen(3))
			for _, c := range form.Children() {
				q, err := store.Login("bob").NodeByIdentifier(QuestionReference(c))
				Expect(err).ToNot(HaveOccurred())

				p, _ := c.Property(ValueProperty)
				switch q.Name() {
				case "weight":
					Expect(p.Type).To(Equal(repo.TypeDouble))
					Expect(p.Value()).To(Equal(float64(80)))
				case "height":
					Expect(p.Value()).To(Equal(1.8))
				case "notes":
					Expect(repo.PrimaryType(c)).To(Equal("cards:TextAnswer"))
					Expect(p.Value()).To(Equal("fine"))
				}
			}
		})

		It("Should reject unknown items and invalid values", func() {
			root := repo.NewBuilder(store.Root())
			form, err := NewForm(root, qn, "p")
			Expect(err).ToNot(HaveOccurred())

			Expect(WriteAnswers(form, qn, map[string]any{"missing": 1})).To(MatchError("vitals has no item missing"))
			Expect(WriteAnswers(form, qn, map[string]any{"weight": "heavy"})).To(HaveOccurred())
			Expect(WriteAnswers(form, qn, map[string]any{"visits": "x"})).To(MatchError("invalid answers for section visits: string"))
			Expect(WriteAnswers(form, qn, map[string]any{"visits": []any{"x"}})).To(MatchError("instance 0 of section visits is not a map"))
		})
	})

	Describe("CollectAnswers", func() {
		It("Should collect values by question name with the first answer winning", func() {
			form := commitForm(map[string]any{
				"weight": 80,
				"visits": []any{
					map[string]any{"systolic": 120},
					map[string]any{"systolic": 130},
				},
			})

			Expect(CollectAnswers(form, store.Login("bob"))).To(Equal(map[string]any{
				"weight":   float64(80),
				"systolic": int64(120),
			}))
		})

		It("Should skip answers with unknown questions", func() {
			form := commitForm(map[string]any{"weight": 80})

			Expect(CollectAnswers(form, repo.NewStore().Login("x"))).To(BeEmpty())
		})
	})

	Describe("Export", func() {
		It("Should render nested answers", func() {
			form := commitForm(map[string]any{
				"weight": 80,
				"visits": []any{
					map[string]any{"systolic": 120},
					map[string]any{"systolic": 130},
				},
			})

			res, err := Export(form, store.Login("bob"))
			Expect(err).ToNot(HaveOccurred())
			Expect(res).To(Equal(map[string]any{
				"weight": float64(80),
				"visits": []any{
					map[string]any{"systolic": int64(120)},
					map[string]any{"systolic": int64(130)},
				},
			}))
		})

		It("Should only export forms", func() {
			_, err := Export(qn, store.Login("bob"))
			Expect(err).To(MatchError("/Questionnaires/vitals is not a form"))
		})
	})
})
