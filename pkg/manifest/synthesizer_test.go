// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.opendefense.cloud/forge/pkg/apis/forge/v1alpha1"
	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/resolve"
	"go.opendefense.cloud/forge/pkg/values"
)

func mustTree(v any) *values.Tree {
	t, err := values.FromInterface(v)
	Expect(err).NotTo(HaveOccurred())
	return t
}

func testStore() *catalog.Store {
	defs := []*catalog.Definition{
		{
			ID:              "cert-manager",
			Name:            "Cert Manager",
			Category:        "system",
			Priority:        10,
			ChartType:       catalog.ChartTypeUpstream,
			CreateNamespace: true,
			Timeout:         "10m",
			Upstream: &catalog.Upstream{
				Repository: "https://charts.jetstack.io",
				ChartName:  "cert-manager",
				Version:    "v1.14.4",
			},
			DefaultValues: mustTree(map[string]any{"installCRDs": true}),
		},
		{
			ID:              "ingress-nginx",
			Name:            "Ingress NGINX",
			Category:        "system",
			Priority:        20,
			ChartType:       catalog.ChartTypeUpstream,
			CreateNamespace: true,
			Timeout:         "10m",
			DependsOn:       []string{"cert-manager", "flux-system", "namespaces"},
			Upstream: &catalog.Upstream{
				Repository: "https://kubernetes.github.io/ingress-nginx",
				ChartName:  "ingress-nginx",
				Version:    "4.10.0",
			},
		},
		{
			ID:              "cluster-policies",
			Name:            "Cluster Policies",
			Category:        "apps",
			Priority:        50,
			ChartType:       catalog.ChartTypeCustom,
			CreateNamespace: true,
			Timeout:         "5m",
			Templates: map[string]string{
				"limits.yaml": "apiVersion: v1\nkind: LimitRange\nmetadata:\n  name: defaults\n",
			},
			DefaultValues: mustTree(map[string]any{"enforce": true}),
		},
		{
			ID:        "flux-system",
			Category:  "core",
			Priority:  0,
			ChartType: catalog.ChartTypeMeta,
		},
	}
	cats := map[string]catalog.Category{
		"core":   {ID: "core", Name: "Core", Priority: 10},
		"system": {ID: "system", Name: "System", Priority: 30},
		"apps":   {ID: "apps", Name: "Applications", Priority: 60},
	}
	return catalog.NewStore(defs, cats)
}

var _ = Describe("Synthesizer", func() {
	var (
		store *catalog.Store
		syn   *manifest.Synthesizer
		tree  *manifest.Tree
	)

	synthesize := func(req *v1alpha1.GenerateRequest) *manifest.Tree {
		set, err := resolve.New(store).Build(req)
		Expect(err).NotTo(HaveOccurred())

		out, err := syn.Synthesize(manifest.Input{
			ClusterName: req.ClusterName,
			Git:         req.Git,
			Set:         set,
			Selections:  req.Components,
		})
		Expect(err).NotTo(HaveOccurred())
		return out
	}

	request := func() *v1alpha1.GenerateRequest {
		return &v1alpha1.GenerateRequest{
			ClusterName: "Prod Cluster",
			Git: v1alpha1.GitConfig{
				RepoURL: "ssh://git@git.example.com/infra/prod.git",
				Branch:  "main",
			},
			Components: []v1alpha1.ComponentSelection{
				{
					ID:      "ingress-nginx",
					Enabled: true,
					Values:  mustTree(map[string]any{"controller": map[string]any{"replicaCount": 2}}),
				},
				{ID: "cluster-policies", Enabled: true},
			},
		}
	}

	BeforeEach(func() {
		store = testStore()
		syn = manifest.NewSynthesizer(store)
		tree = synthesize(request())
	})

	It("emits a wrapper chart with the upstream as dependency", func() {
		chart := tree.Get("charts/system/cert-manager/Chart.yaml")
		Expect(chart).NotTo(BeNil())
		Expect(string(chart.Content)).To(ContainSubstring("name: cert-manager"))
		Expect(string(chart.Content)).To(ContainSubstring("version: 1.14.4"))
		Expect(string(chart.Content)).To(ContainSubstring("file://charts/cert-manager"))
	})

	It("nests wrapper chart defaults under the upstream chart name", func() {
		vals := tree.Get("charts/system/cert-manager/values.yaml")
		Expect(vals).NotTo(BeNil())
		Expect(string(vals.Content)).To(Equal("cert-manager:\n  installCRDs: true\n"))
	})

	It("emits a vendor placeholder below the wrapper chart", func() {
		Expect(tree.Get("charts/system/cert-manager/charts/cert-manager/Chart.yaml")).NotTo(BeNil())
		Expect(tree.Get("charts/system/cert-manager/charts/cert-manager/VENDOR_ME.md")).NotTo(BeNil())
	})

	It("emits custom charts with their own templates and top-level values", func() {
		Expect(string(tree.Get("charts/apps/cluster-policies/values.yaml").Content)).To(Equal("enforce: true\n"))
		Expect(string(tree.Get("charts/apps/cluster-policies/templates/limits.yaml").Content)).To(ContainSubstring("LimitRange"))
	})

	It("emits no chart and no release for meta components", func() {
		for _, p := range tree.Paths() {
			Expect(p).NotTo(ContainSubstring("flux-system.yaml"))
			Expect(p).NotTo(HavePrefix("charts/core/flux-system"))
		}
	})

	It("places user values in the HelmRelease, wrapped under the chart name", func() {
		rel := tree.Get("manifests/releases/system/ingress-nginx.yaml")
		Expect(rel).NotTo(BeNil())

		content := string(rel.Content)
		Expect(content).To(ContainSubstring("kind: HelmRelease"))
		Expect(content).To(ContainSubstring("targetNamespace: ingress-nginx"))
		Expect(content).To(ContainSubstring("chart: ./charts/system/ingress-nginx"))
		Expect(content).To(ContainSubstring("ingress-nginx:\n    controller:\n      replicaCount: 2"))
	})

	It("filters flux and namespaces entries from release dependencies", func() {
		content := string(tree.Get("manifests/releases/system/ingress-nginx.yaml").Content)
		Expect(content).To(ContainSubstring("- name: cert-manager"))
		Expect(content).To(ContainSubstring("namespace: cert-manager"))
		Expect(content).NotTo(ContainSubstring("- name: flux-system"))
		Expect(content).NotTo(ContainSubstring("- name: namespaces"))
	})

	It("chains category Kustomizations in priority order", func() {
		Expect(tree.Get("manifests/kustomizations/00-namespaces.yaml")).NotTo(BeNil())

		system := string(tree.Get("manifests/kustomizations/30-releases-system.yaml").Content)
		Expect(system).To(ContainSubstring("path: ./manifests/releases/system"))
		Expect(system).To(ContainSubstring("- name: namespaces"))

		apps := string(tree.Get("manifests/kustomizations/60-releases-apps.yaml").Content)
		Expect(apps).To(ContainSubstring("- name: releases-system"))
	})

	It("collects namespaces into the namespaces release", func() {
		content := string(tree.Get("manifests/namespaces/release.yaml").Content)
		Expect(content).To(ContainSubstring("- name: cert-manager"))
		Expect(content).To(ContainSubstring("- name: ingress-nginx"))
		Expect(content).To(ContainSubstring("- name: cluster-policies"))
		Expect(content).NotTo(ContainSubstring("- name: flux-system"))
	})

	It("emits a GitRepository with a secretRef for SSH URLs", func() {
		content := string(tree.Get("manifests/flux/gitrepository.yaml").Content)
		Expect(content).To(ContainSubstring("url: ssh://git@git.example.com/infra/prod.git"))
		Expect(content).To(ContainSubstring("branch: main"))
		Expect(content).To(ContainSubstring("secretRef"))
	})

	It("normalizes the cluster name in generated files", func() {
		Expect(string(tree.Get("bootstrap.sh").Content)).To(ContainSubstring(`CLUSTER_NAME="prod-cluster"`))
		Expect(string(tree.Get("README.md").Content)).To(ContainSubstring("# prod-cluster"))
	})

	It("marks scripts as executable", func() {
		Expect(tree.Get("bootstrap.sh").Executable).To(BeTrue())
		Expect(tree.Get("vendor-charts.sh").Executable).To(BeTrue())
		Expect(tree.Get("README.md").Executable).To(BeFalse())
	})

	It("lists every upstream chart in the vendor script", func() {
		content := string(tree.Get("vendor-charts.sh").Content)
		Expect(content).To(ContainSubstring(`vendor "cert-manager" "system" "cert-manager" "v1.14.4" "https://charts.jetstack.io"`))
		Expect(content).To(ContainSubstring(`vendor "ingress-nginx"`))
		Expect(content).NotTo(ContainSubstring("cluster-policies"))
	})

	It("embeds the selection in forge.yaml for re-import", func() {
		content := string(tree.Get("forge.yaml").Content)
		Expect(content).To(ContainSubstring("clusterName: prod-cluster"))
		Expect(content).To(ContainSubstring("id: ingress-nginx"))
		Expect(content).To(ContainSubstring("replicaCount: 2"))
	})

	It("produces byte-identical output for identical input", func() {
		again := synthesize(request())

		Expect(again.Paths()).To(Equal(tree.Paths()))
		for _, p := range tree.Paths() {
			Expect(again.Get(p).Content).To(Equal(tree.Get(p).Content), "file %s differs", p)
		}
	})

	It("excludes vendored chart files from checksums", func() {
		sums := tree.Checksums()
		Expect(sums).To(HaveKey("bootstrap.sh"))
		Expect(sums).To(HaveKey("manifests/releases/system/ingress-nginx.yaml"))
		Expect(sums).NotTo(HaveKey("charts/system/cert-manager/charts/cert-manager/Chart.yaml"))
	})

	It("materializes the tree on a filesystem", func() {
		fs := memoryfs.New()
		Expect(tree.WriteTo(fs, "/repo")).To(Succeed())

		data, err := vfs.ReadFile(fs, "/repo/manifests/kustomizations/00-namespaces.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("kind: Kustomization"))

		fi, err := fs.Stat("/repo/bootstrap.sh")
		Expect(err).NotTo(HaveOccurred())
		Expect(fi.Mode() & 0o111).NotTo(BeZero())
	})
})
