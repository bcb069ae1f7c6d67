// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package values

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"
)

func mustTree(doc string) *Tree {
	var t Tree
	Expect(yaml.Unmarshal([]byte(doc), &t)).To(Succeed())
	return &t
}

var _ = Describe("Merge", func() {
	It("merges nested mappings recursively", func() {
		base := mustTree("a: 1\nb:\n  x: 1\n")
		overlay := mustTree("b:\n  y: 2\n")

		result := Merge(base, overlay)
		Expect(result.Interface()).To(Equal(map[string]any{
			"a": 1,
			"b": map[string]any{"x": 1, "y": 2},
		}))
	})

	It("replaces sequences wholesale", func() {
		base := mustTree("list:\n  - 1\n  - 2\n  - 3\n")
		overlay := mustTree("list:\n  - 9\n")

		result := Merge(base, overlay)
		Expect(result.Interface()).To(Equal(map[string]any{
			"list": []any{9},
		}))
	})

	It("replaces scalar with mapping and mapping with scalar", func() {
		Expect(Merge(mustTree("a: 1"), mustTree("a:\n  b: 2")).Interface()).
			To(Equal(map[string]any{"a": map[string]any{"b": 2}}))
		Expect(Merge(mustTree("a:\n  b: 2"), mustTree("a: 1")).Interface()).
			To(Equal(map[string]any{"a": 1}))
	})

	It("does not mutate its inputs", func() {
		base := mustTree("b:\n  x: 1\n")
		overlay := mustTree("b:\n  x: 2\n")

		_ = Merge(base, overlay)
		Expect(base.Get("b").Get("x").ScalarValue()).To(Equal(1))
	})

	It("treats a nil overlay as no-op", func() {
		base := mustTree("a: 1")
		Expect(Merge(base, nil).Interface()).To(Equal(map[string]any{"a": 1}))
	})
})

var _ = Describe("MergeLayers", func() {
	It("applies defaults < user < raw precedence", func() {
		defaults := mustTree("a: 1\nb:\n  x: 1\n")
		user := mustTree("b:\n  y: 2\n")

		result, err := MergeLayers(defaults, user, "b:\n  x: 9\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Interface()).To(Equal(map[string]any{
			"a": 1,
			"b": map[string]any{"x": 9, "y": 2},
		}))
	})

	It("treats empty raw text as no override", func() {
		result, err := MergeLayers(mustTree("a: 1"), nil, "   \n\t")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Interface()).To(Equal(map[string]any{"a": 1}))
	})
})

var _ = Describe("ParseOverrides", func() {
	It("accepts a mapping document", func() {
		tree, err := ParseOverrides("replicas: 3\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.Get("replicas").ScalarValue()).To(Equal(3))
	})

	It("returns nil for empty text", func() {
		tree, err := ParseOverrides("")
		Expect(err).NotTo(HaveOccurred())
		Expect(tree).To(BeNil())
	})

	It("rejects a non-mapping top level", func() {
		_, err := ParseOverrides("- one\n- two\n")
		Expect(err).To(MatchError(ContainSubstring("must be a YAML mapping")))
	})

	It("rejects malformed YAML with line information", func() {
		_, err := ParseOverrides("a: 1\n  b: broken\n")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line"))
	})
})

var _ = Describe("ValidateOverrides", func() {
	It("names the offending component", func() {
		err := ValidateOverrides("ingress-nginx", "[not a mapping]")
		var overrideErr *OverrideError
		Expect(err).To(BeAssignableToTypeOf(overrideErr))
		Expect(err.Error()).To(ContainSubstring("ingress-nginx"))
	})

	It("passes empty overrides", func() {
		Expect(ValidateOverrides("cert-manager", "")).To(Succeed())
	})
})

var _ = Describe("Tree round-trips", func() {
	It("preserves mapping order through YAML", func() {
		tree := mustTree("zeta: 1\nalpha: 2\nmiddle: 3\n")
		out, err := yaml.Marshal(tree)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("zeta: 1\nalpha: 2\nmiddle: 3\n"))
	})

	It("preserves object order through JSON", func() {
		var tree Tree
		Expect(tree.UnmarshalJSON([]byte(`{"z":1,"a":{"y":2,"b":3}}`))).To(Succeed())
		data, err := tree.MarshalJSON()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"z":1,"a":{"y":2,"b":3}}`))
	})
})
