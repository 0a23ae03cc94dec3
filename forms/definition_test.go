// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/choria-io/computed/repo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Definitions", func() {
	Describe("ParseQuestionnaire", func() {
		It("Should parse items", func() {
			q, err := ParseQuestionnaire([]byte(vitalsYAML))
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Name).To(Equal("vitals"))
			Expect(q.Items).To(HaveLen(5))

			visits := q.Items[3]
			Expect(visits.IsSection()).To(BeTrue())
			Expect(visits.Recurrent).To(BeTrue())
			Expect(visits.InitialNumberOfInstances).To(Equal(3))
			Expect(visits.Items[1].IsComputed()).To(BeTrue())
			Expect(q.Items[2].IsComputed()).To(BeTrue())
			Expect(q.Items[0].IsComputed()).To(BeFalse())
		})

		DescribeTable("invalid definitions",
			func(def string, expected string) {
				_, err := ParseQuestionnaire([]byte(def))
				Expect(err).To(MatchError(expected))
			},
			Entry("no name", "items: [{name: a, dataType: text}]", `invalid questionnaire name ""`),
			Entry("no items", "name: q", "no items defined"),
			Entry("bad item name", "name: q\nitems: [{name: 'a/b', dataType: text}]", `invalid item name "a/b" in q`),
			Entry("duplicate", "name: q\nitems: [{name: a, dataType: text}, {name: a, dataType: text}]", "duplicate item a in q"),
			Entry("bad data type", "name: q\nitems: [{name: a, dataType: blob}]", `q/a: unsupported data type "blob"`),
			Entry("no expression", "name: q\nitems: [{name: a, dataType: computed}]", "q/a: computed questions require an expression"),
			Entry("nested", "name: q\nitems: [{name: s, items: [{name: a, dataType: long, entryMode: computed}]}]", "q/s/a: computed questions require an expression"),
		)

		It("Should read files and readers", func() {
			td := GinkgoT().TempDir()
			f := filepath.Join(td, "vitals.yaml")
			Expect(os.WriteFile(f, []byte(vitalsYAML), 0600)).To(Succeed())

			q, err := LoadQuestionnaire(f)
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Title).To(Equal("Vitals"))

			q, err = ReadQuestionnaire(strings.NewReader(vitalsYAML))
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Name).To(Equal("vitals"))

			_, err = LoadQuestionnaire(filepath.Join(td, "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Install", func() {
		It("Should create the questionnaire tree with identifiers", func() {
			q, err := ParseQuestionnaire([]byte(vitalsYAML))
			Expect(err).ToNot(HaveOccurred())

			root := repo.NewBuilder(nil)
			qb, err := Install(root, q)
			Expect(err).ToNot(HaveOccurred())
			Expect(qb.Path()).To(Equal("/Questionnaires/vitals"))

			qn := qb.State()
			Expect(qn.ChildNames()).To(Equal([]string{"weight", "height", "bmi", "visits", "notes"}))

			ids := map[string]bool{}
			var walk func(n *repo.Node)
			walk = func(n *repo.Node) {
				Expect(n.HasProperty(repo.IdentifierProperty)).To(BeTrue())
				ids[n.Identifier()] = true
				for _, c := range n.Children() {
					walk(c)
				}
			}
			walk(qn)
			Expect(ids).To(HaveLen(8))

			bmi := qn.Child("bmi")
			Expect(Expression(bmi)).To(Equal("return @{weight} / (@{height} * @{height})"))
			Expect(StringProperty(bmi, DataTypeProperty)).To(Equal("computed"))

			visits := qn.Child("visits")
			Expect(IsRecurrent(visits)).To(BeTrue())
			Expect(StringProperty(visits.Child("doubled"), EntryModeProperty)).To(Equal("computed"))
			Expect(IsRecurrent(qn.Child("weight"))).To(BeFalse())
		})

		It("Should replace earlier versions", func() {
			q, _ := ParseQuestionnaire([]byte(vitalsYAML))
			root := repo.NewBuilder(nil)

			first, err := Install(root, q)
			Expect(err).ToNot(HaveOccurred())
			firstID := repo.Identifier(first)

			second, err := Install(root, q)
			Expect(err).ToNot(HaveOccurred())
			Expect(repo.Identifier(second)).ToNot(Equal(firstID))
			Expect(root.Child(QuestionnairesPath).ChildNames()).To(Equal([]string{"vitals"}))
		})
	})
})
