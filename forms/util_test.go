// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Util", func() {
	Describe("renderTemplate", func() {
		It("Should render with sprig functions", func() {
			res, err := renderTemplate(`Hello {{ .Name | upper }}`, map[string]any{"Name": "bob"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res).To(Equal("Hello BOB"))
		})

		It("Should fail on invalid templates", func() {
			_, err := renderTemplate(`{{ .Name `, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("isOneOf", func() {
		It("Should match any of the values", func() {
			Expect(isOneOf("a", "b", "a")).To(BeTrue())
			Expect(isOneOf("c", "b", "a")).To(BeFalse())
			Expect(isOneOf("")).To(BeFalse())
		})
	})
})
