// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package resolve_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/resolve"
)

func testStore() *catalog.Store {
	defs := []*catalog.Definition{
		{ID: "flux-system", Priority: 0, AlwaysInclude: true, ChartType: catalog.ChartTypeMeta},
		{ID: "cert-manager-crds", Priority: 5, ChartType: catalog.ChartTypeUpstream},
		{ID: "cert-manager", Priority: 10, RequiresCrds: []string{"cert-manager-crds"}},
		{ID: "ingress-nginx", Priority: 50, DependsOn: []string{"cert-manager"}},
		{ID: "monitoring", Priority: 80, DependsOn: []string{"ingress-nginx"}, RequiresCrds: []string{"monitoring-crds"}},
		{ID: "monitoring-crds", Priority: 5},
		{ID: "trust-store", Priority: 60},
		{
			ID:          "trust-manager",
			Priority:    60,
			DependsOn:   []string{"trust-store"},
			AutoInclude: &catalog.AutoInclude{When: []string{"cert-manager"}},
		},
		{
			ID:          "trust-bundles",
			Priority:    61,
			AutoInclude: &catalog.AutoInclude{When: []string{"trust-manager"}},
		},
		{ID: "pg-operator", Priority: 40, IsOperator: true},
		{
			ID:               "pg-cluster",
			Priority:         90,
			IsInstance:       true,
			InstanceOf:       "pg-operator",
			RequiresOperator: "pg-operator",
			MultiInstance:    true,
		},
		{ID: "phantom", Priority: 70, DependsOn: []string{"does-not-exist"}},
		{ID: "alpha", Priority: 30},
		{ID: "beta", Priority: 30},
	}
	return catalog.NewStore(defs, nil)
}

var _ = Describe("Resolver", func() {
	var r *resolve.Resolver

	BeforeEach(func() {
		r = resolve.New(testStore())
	})

	Describe("Resolve", func() {
		It("computes the transitive dependency closure", func() {
			res, err := r.Resolve([]string{"monitoring"})
			Expect(err).NotTo(HaveOccurred())

			for _, id := range []string{"monitoring", "monitoring-crds", "ingress-nginx", "cert-manager", "cert-manager-crds"} {
				Expect(res.Has(id)).To(BeTrue(), "expected %s in resolved set", id)
			}
		})

		It("seeds always-included components even for an empty request", func() {
			res, err := r.Resolve(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IDs).To(Equal([]string{"flux-system"}))
			Expect(res.AlwaysIncluded).To(Equal([]string{"flux-system"}))
		})

		It("orders the result by priority, then ID", func() {
			res, err := r.Resolve([]string{"beta", "alpha", "monitoring"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IDs).To(Equal([]string{
				"flux-system",
				"cert-manager-crds",
				"monitoring-crds",
				"cert-manager",
				"alpha",
				"beta",
				"ingress-nginx",
				"monitoring",
			}))
		})

		It("evaluates auto-include rules exactly once", func() {
			res, err := r.Resolve([]string{"cert-manager"})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Has("trust-manager")).To(BeTrue())
			Expect(res.AutoIncluded).To(Equal([]string{"trust-manager"}))
			// trust-bundles triggers on trust-manager, which only
			// entered through the sweep itself.
			Expect(res.Has("trust-bundles")).To(BeFalse())
		})

		It("pulls in the dependencies of auto-included components", func() {
			res, err := r.Resolve([]string{"cert-manager"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Has("trust-store")).To(BeTrue())
		})

		It("includes directly requested auto-include components without the trigger", func() {
			res, err := r.Resolve([]string{"trust-bundles"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Has("trust-bundles")).To(BeTrue())
			Expect(res.AutoIncluded).To(BeEmpty())
		})

		It("silently drops unknown requested IDs by default", func() {
			res, err := r.Resolve([]string{"alpha", "no-such-component"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Has("alpha")).To(BeTrue())
			Expect(res.Has("no-such-component")).To(BeFalse())
		})

		It("silently drops unknown dependency references", func() {
			res, err := r.Resolve([]string{"phantom"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Has("phantom")).To(BeTrue())
			Expect(res.Has("does-not-exist")).To(BeFalse())
		})

		It("rejects unknown requested IDs under FailUnknown", func() {
			strict := resolve.New(testStore(), resolve.WithUnknownPolicy(resolve.FailUnknown))

			_, err := strict.Resolve([]string{"no-such-component"})
			var unknown *resolve.UnknownComponentError
			Expect(errors.As(err, &unknown)).To(BeTrue())
			Expect(unknown.ID).To(Equal("no-such-component"))
		})

		It("is idempotent for an already closed set", func() {
			first, err := r.Resolve([]string{"monitoring"})
			Expect(err).NotTo(HaveOccurred())

			second, err := r.Resolve(first.IDs)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.IDs).To(ContainElements(first.IDs))
		})
	})

	Describe("ValidateSelection", func() {
		It("accepts an instance selected together with its operator", func() {
			Expect(r.ValidateSelection([]string{"pg-operator", "pg-cluster"})).To(Succeed())
		})

		It("rejects an instance selected without its operator", func() {
			err := r.ValidateSelection([]string{"pg-cluster"})
			Expect(err).To(HaveOccurred())

			var opErr *resolve.OperatorError
			Expect(errors.As(err, &opErr)).To(BeTrue())
			Expect(opErr.Instance).To(Equal("pg-cluster"))
			Expect(opErr.Operator).To(Equal("pg-operator"))
		})

		It("collects all violations before reporting", func() {
			store := catalog.NewStore([]*catalog.Definition{
				{ID: "op-a", IsOperator: true, Priority: 10},
				{ID: "inst-a", IsInstance: true, RequiresOperator: "op-a", Priority: 20},
				{ID: "op-b", IsOperator: true, Priority: 10},
				{ID: "inst-b", IsInstance: true, InstanceOf: "op-b", Priority: 20},
			}, nil)
			v := resolve.New(store)

			err := v.ValidateSelection([]string{"inst-a", "inst-b"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("inst-a"))
			Expect(err.Error()).To(ContainSubstring("inst-b"))

			var errs resolve.ValidationErrors
			Expect(errors.As(err, &errs)).To(BeTrue())
			Expect(errs).To(HaveLen(2))
		})
	})
})
