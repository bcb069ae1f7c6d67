// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/resolve"
)

func entry(def *catalog.Definition, namespace string) resolve.Entry {
	return resolve.Entry{
		Definition:  def,
		ReleaseName: def.EffectiveReleaseName(),
		Namespace:   namespace,
	}
}

var _ = Describe("CollectNamespaces", func() {
	It("keeps first-seen order and deduplicates", func() {
		set := &resolve.Set{Entries: []resolve.Entry{
			entry(&catalog.Definition{ID: "b", CreateNamespace: true}, "shared"),
			entry(&catalog.Definition{ID: "a", CreateNamespace: true}, "apps"),
			entry(&catalog.Definition{ID: "c", CreateNamespace: true}, "shared"),
		}}
		Expect(manifest.CollectNamespaces(set)).To(Equal([]string{"shared", "apps"}))
	})

	It("puts the CRD namespace first when any CRD component is present", func() {
		set := &resolve.Set{Entries: []resolve.Entry{
			entry(&catalog.Definition{ID: "app", CreateNamespace: true}, "app"),
			entry(&catalog.Definition{ID: "app-crds", CreateNamespace: true}, catalog.CRDNamespace),
		}}
		Expect(manifest.CollectNamespaces(set)).To(Equal([]string{catalog.CRDNamespace, "app"}))
	})

	It("skips reserved system namespaces", func() {
		set := &resolve.Set{Entries: []resolve.Entry{
			entry(&catalog.Definition{ID: "metrics", CreateNamespace: true}, "kube-system"),
			entry(&catalog.Definition{ID: "sync", CreateNamespace: true}, "flux-system"),
			entry(&catalog.Definition{ID: "app", CreateNamespace: true}, "app"),
		}}
		Expect(manifest.CollectNamespaces(set)).To(Equal([]string{"app"}))
	})

	It("skips components that opt out of namespace creation", func() {
		set := &resolve.Set{Entries: []resolve.Entry{
			entry(&catalog.Definition{ID: "app", CreateNamespace: false}, "app"),
		}}
		Expect(manifest.CollectNamespaces(set)).To(BeEmpty())
	})

	It("skips meta and bootstrap-installed components", func() {
		set := &resolve.Set{Entries: []resolve.Entry{
			entry(&catalog.Definition{ID: "meta", ChartType: catalog.ChartTypeMeta, CreateNamespace: true}, "meta"),
			entry(&catalog.Definition{ID: "flux-operator", BootstrapInstall: true, CreateNamespace: true}, "flux-operator"),
		}}
		Expect(manifest.CollectNamespaces(set)).To(BeEmpty())
	})

	It("includes instance namespaces", func() {
		def := &catalog.Definition{ID: "pg-cluster", MultiInstance: true, CreateNamespace: true}
		set := &resolve.Set{Entries: []resolve.Entry{
			{Definition: def, Instance: "billing", ReleaseName: "pg-cluster-billing", Namespace: "billing-db"},
			{Definition: def, Instance: "inventory", ReleaseName: "pg-cluster-inventory", Namespace: "inventory-db"},
		}}
		Expect(manifest.CollectNamespaces(set)).To(Equal([]string{"billing-db", "inventory-db"}))
	})
})
