// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package update_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/update"
)

var _ = Describe("Compute", func() {
	It("separates changed from unchanged files", func() {
		tree := manifest.NewTree()
		tree.AddString("a.yaml", "alpha\n")
		tree.AddString("b.yaml", "bravo\n")

		prior := map[string]string{
			"a.yaml": tree.Get("a.yaml").Checksum(),
		}

		d := update.Compute(tree, prior)
		Expect(d.Changed).To(Equal([]string{"b.yaml"}))
		Expect(d.Unchanged).To(Equal([]string{"a.yaml"}))
		Expect(d.Removed).To(BeEmpty())
	})

	It("treats modified content as changed", func() {
		tree := manifest.NewTree()
		tree.AddString("a.yaml", "new content\n")

		d := update.Compute(tree, map[string]string{"a.yaml": "0123456789abcdef0123456789abcdef"})
		Expect(d.Changed).To(Equal([]string{"a.yaml"}))
		Expect(d.Unchanged).To(BeEmpty())
	})

	It("reports recorded files that no longer exist", func() {
		tree := manifest.NewTree()
		tree.AddString("a.yaml", "alpha\n")

		d := update.Compute(tree, map[string]string{
			"a.yaml":    tree.Get("a.yaml").Checksum(),
			"gone.yaml": "0123456789abcdef0123456789abcdef",
		})
		Expect(d.Removed).To(Equal([]string{"gone.yaml"}))
	})

	It("ignores vendored chart files", func() {
		tree := manifest.NewTree()
		tree.AddString("charts/system/cert-manager/Chart.yaml", "wrapper\n")
		tree.AddString("charts/system/cert-manager/charts/cert-manager/Chart.yaml", "vendored\n")

		d := update.Compute(tree, nil)
		Expect(d.Changed).To(Equal([]string{"charts/system/cert-manager/Chart.yaml"}))
	})
})

var _ = Describe("DiffCharts", func() {
	It("returns charts with new or changed versions", func() {
		current := []update.Chart{
			{Dir: "charts/system/cert-manager", Version: "v1.14.4"},
			{Dir: "charts/system/ingress-nginx", Version: "4.10.0"},
			{Dir: "charts/apps/harbor", Version: "1.14.0"},
		}
		prior := map[string]string{
			"charts/system/cert-manager":  "v1.13.0",
			"charts/system/ingress-nginx": "4.10.0",
		}

		Expect(update.DiffCharts(current, prior)).To(Equal([]string{
			"charts/apps/harbor",
			"charts/system/cert-manager",
		}))
	})
})
