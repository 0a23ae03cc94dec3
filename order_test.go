// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package computed

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Dependency ordering", func() {
	Describe("DependencyMap", func() {
		It("Should merge dependencies and keep order", func() {
			m := NewDependencyMap()
			m.Add("a", "b")
			m.Add("c")
			m.Add("a", "b", "c")

			Expect(m.Keys()).To(Equal([]string{"a", "c"}))
			Expect(m.Dependencies("a")).To(Equal([]string{"b", "c"}))
			Expect(m.Dependencies("c")).To(BeEmpty())
			Expect(m.Len()).To(Equal(2))
			Expect(m.Has("b")).To(BeFalse())
		})
	})

	Describe("Order", func() {
		It("Should place dependencies first", func() {
			m := NewDependencyMap()
			m.Add("c", "b")
			m.Add("b", "a")
			m.Add("a")

			Expect(Order(m)).To(Equal([]string{"a", "b", "c"}))
		})

		It("Should keep independent names in insertion order", func() {
			m := NewDependencyMap()
			m.Add("z")
			m.Add("y", "x")
			m.Add("x")

			Expect(Order(m)).To(Equal([]string{"z", "x", "y"}))
		})

		It("Should ignore unknown dependencies", func() {
			m := NewDependencyMap()
			m.Add("x", "weight")

			Expect(Order(m)).To(Equal([]string{"x"}))
		})

		It("Should list cycle members once", func() {
			m := NewDependencyMap()
			m.Add("a", "b")
			m.Add("b", "a")
			m.Add("c", "c")

			Expect(Order(m)).To(Equal([]string{"b", "a", "c"}))
		})
	})

	Describe("FindCycle", func() {
		It("Should find cycles", func() {
			m := NewDependencyMap()
			m.Add("x")
			m.Add("a", "x", "b")
			m.Add("b", "c")
			m.Add("c", "a")

			Expect(FindCycle(m)).To(Equal([]string{"a", "b", "c", "a"}))
		})

		It("Should find self references", func() {
			m := NewDependencyMap()
			m.Add("a", "a")

			Expect(FindCycle(m)).To(Equal([]string{"a", "a"}))
		})

		It("Should accept acyclic maps", func() {
			m := NewDependencyMap()
			m.Add("c", "b", "a")
			m.Add("b", "a")
			m.Add("a")

			Expect(FindCycle(m)).To(BeNil())

			order, err := OrderStrict(m)
			Expect(err).ToNot(HaveOccurred())
			Expect(order).To(Equal([]string{"a", "b", "c"}))
		})

		It("Should fail strict ordering", func() {
			m := NewDependencyMap()
			m.Add("a", "b")
			m.Add("b", "a")

			_, err := OrderStrict(m)
			Expect(err).To(MatchError(ErrDependencyCycle))
			Expect(err).To(MatchError("dependency cycle: a -> b -> a"))
		})
	})
})
