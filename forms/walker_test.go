// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"github.com/choria-io/computed/repo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildUnansweredTree", func() {
	var (
		qn  *repo.Node
		log *testLogger
	)

	BeforeEach(func() {
		_, qn = installVitals()
		log = &testLogger{}
	})

	It("Should mirror only branches with computed questions", func() {
		tree := BuildUnansweredTree(qn, nil, log)
		Expect(tree).ToNot(BeNil())
		Expect(tree.String()).To(Equal("vitals{bmi visits{doubled}}"))
		Expect(tree.Child("bmi").IsQuestion()).To(BeTrue())
		Expect(tree.Child("bmi").Node().Identifier()).To(Equal(qn.Child("bmi").Identifier()))
	})

	It("Should skip questions modified by the client", func() {
		modified := map[string]bool{qn.Child("visits").Child("doubled").Identifier(): true}
		tree := BuildUnansweredTree(qn, modified, log)
		Expect(tree.String()).To(Equal("vitals{bmi}"))

		modified[qn.Child("bmi").Identifier()] = true
		Expect(BuildUnansweredTree(qn, modified, log)).To(BeNil())
	})

	It("Should return nothing for other nodes", func() {
		Expect(BuildUnansweredTree(qn.Child("weight"), nil, log)).To(BeNil())
		Expect(BuildUnansweredTree(nil, nil, log)).To(BeNil())
		Expect(BuildUnansweredTree(repo.NewRoot(), nil, log)).To(BeNil())
	})

	It("Should return a leaf for a computed question", func() {
		tree := BuildUnansweredTree(qn.Child("bmi"), nil, log)
		Expect(tree.IsQuestion()).To(BeTrue())
	})
})
