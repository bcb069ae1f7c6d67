// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package resolve_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.opendefense.cloud/forge/pkg/apis/forge/v1alpha1"
	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/resolve"
	"go.opendefense.cloud/forge/pkg/values"
)

func tree(v any) *values.Tree {
	t, err := values.FromInterface(v)
	Expect(err).NotTo(HaveOccurred())
	return t
}

var _ = Describe("Build", func() {
	var r *resolve.Resolver

	BeforeEach(func() {
		defs := []*catalog.Definition{
			{
				ID:       "cert-manager",
				Priority: 10,
				DefaultValues: tree(map[string]any{
					"installCRDs": true,
					"replicas":    1,
				}),
			},
			{ID: "pg-operator", Priority: 40, IsOperator: true},
			{
				ID:               "pg-cluster",
				Priority:         90,
				IsInstance:       true,
				RequiresOperator: "pg-operator",
				MultiInstance:    true,
				Namespace:        "databases",
				DefaultValues:    tree(map[string]any{"storage": "10Gi"}),
			},
			{ID: "registry", Priority: 50, ReleaseName: "harbor"},
		}
		r = resolve.New(catalog.NewStore(defs, nil))
	})

	It("merges defaults, user values and raw overrides in order", func() {
		set, err := r.Build(&v1alpha1.GenerateRequest{
			Components: []v1alpha1.ComponentSelection{{
				ID:           "cert-manager",
				Enabled:      true,
				Values:       tree(map[string]any{"replicas": 2}),
				RawOverrides: "replicas: 3\nextra: true\n",
			}},
		})
		Expect(err).NotTo(HaveOccurred())

		entry := set.Entry("cert-manager")
		Expect(entry).NotTo(BeNil())
		Expect(entry.Values.Get("installCRDs").ScalarValue()).To(Equal(true))
		Expect(entry.Values.Get("replicas").ScalarValue()).To(Equal(3))
		Expect(entry.Values.Get("extra").ScalarValue()).To(Equal(true))
	})

	It("falls back to defaults when raw overrides do not parse", func() {
		set, err := r.Build(&v1alpha1.GenerateRequest{
			Components: []v1alpha1.ComponentSelection{{
				ID:           "cert-manager",
				Enabled:      true,
				RawOverrides: "not: [valid",
			}},
		})
		Expect(err).NotTo(HaveOccurred())

		entry := set.Entry("cert-manager")
		Expect(entry.Values.Get("replicas").ScalarValue()).To(Equal(1))
		Expect(entry.Values.Get("not")).To(BeNil())
	})

	It("uses defaults for components that were pulled in, not selected", func() {
		defs := []*catalog.Definition{
			{ID: "app", Priority: 50, DependsOn: []string{"base"}},
			{ID: "base", Priority: 10, DefaultValues: tree(map[string]any{"enabled": true})},
		}
		rr := resolve.New(catalog.NewStore(defs, nil))

		set, err := rr.Build(&v1alpha1.GenerateRequest{
			Components: []v1alpha1.ComponentSelection{{ID: "app", Enabled: true}},
		})
		Expect(err).NotTo(HaveOccurred())

		entry := set.Entry("base")
		Expect(entry).NotTo(BeNil())
		Expect(entry.Values.Get("enabled").ScalarValue()).To(Equal(true))
	})

	It("expands multi-instance selections into one release per instance", func() {
		set, err := r.Build(&v1alpha1.GenerateRequest{
			Components: []v1alpha1.ComponentSelection{
				{ID: "pg-operator", Enabled: true},
				{
					ID:      "pg-cluster",
					Enabled: true,
					Values:  tree(map[string]any{"storage": "20Gi"}),
					Instances: []v1alpha1.ComponentInstance{
						{Name: "billing"},
						{Name: "inventory", Namespace: "inventory-db", Values: tree(map[string]any{"storage": "50Gi"})},
					},
				},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		billing := set.Entry("pg-cluster-billing")
		Expect(billing).NotTo(BeNil())
		Expect(billing.Instance).To(Equal("billing"))
		Expect(billing.Namespace).To(Equal("databases"))
		Expect(billing.Values.Get("storage").ScalarValue()).To(Equal("20Gi"))

		inventory := set.Entry("pg-cluster-inventory")
		Expect(inventory).NotTo(BeNil())
		Expect(inventory.Namespace).To(Equal("inventory-db"))
		Expect(inventory.Values.Get("storage").ScalarValue()).To(Equal("50Gi"))

		Expect(set.IDs()).To(ContainElement("pg-cluster"))
		Expect(set.IDs()).To(HaveLen(2))
	})

	It("rejects instances without a name", func() {
		_, err := r.Build(&v1alpha1.GenerateRequest{
			Components: []v1alpha1.ComponentSelection{
				{ID: "pg-operator", Enabled: true},
				{
					ID:        "pg-cluster",
					Enabled:   true,
					Instances: []v1alpha1.ComponentInstance{{Name: ""}},
				},
			},
		})
		Expect(err).To(MatchError(ContainSubstring("instance name")))
	})

	It("honors explicit release names", func() {
		set, err := r.Build(&v1alpha1.GenerateRequest{
			Components: []v1alpha1.ComponentSelection{{ID: "registry", Enabled: true}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Entry("harbor")).NotTo(BeNil())
		Expect(set.Entry("registry")).To(BeNil())
	})

	It("surfaces selection validation failures", func() {
		_, err := r.Build(&v1alpha1.GenerateRequest{
			Components: []v1alpha1.ComponentSelection{{ID: "pg-cluster", Enabled: true}},
		})
		Expect(err).To(MatchError(ContainSubstring("pg-operator")))
	})
})
