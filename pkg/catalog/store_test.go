// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"go.opendefense.cloud/forge/pkg/values"
)

func writeDefinition(dir, name, doc string) {
	Expect(os.WriteFile(filepath.Join(dir, "components", name), []byte(doc), 0o644)).To(Succeed())
}

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(dir, "components"), 0o755)).To(Succeed())
	})

	It("loads definitions ordered by priority with lexical tie-break", func() {
		writeDefinition(dir, "b.yaml", `
id: beta
name: Beta
category: apps
priority: 50
chartType: custom
`)
		writeDefinition(dir, "a.yaml", `
id: alpha
name: Alpha
category: apps
priority: 50
chartType: custom
`)
		writeDefinition(dir, "c.yaml", `
id: gamma
name: Gamma
category: apps
priority: 10
chartType: custom
`)

		store, err := Load(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.IDs()).To(Equal([]string{"gamma", "alpha", "beta"}))
	})

	It("applies field defaults", func() {
		writeDefinition(dir, "minimal.yaml", `
id: metrics-server
name: Metrics Server
chartType: custom
`)

		store, err := Load(dir)
		Expect(err).NotTo(HaveOccurred())

		def, ok := store.Get("metrics-server")
		Expect(ok).To(BeTrue())
		Expect(def.Category).To(Equal("apps"))
		Expect(def.Priority).To(Equal(100))
		Expect(def.CreateNamespace).To(BeTrue())
		Expect(def.Timeout).To(Equal("10m"))
	})

	It("keeps an explicit createNamespace false", func() {
		writeDefinition(dir, "no-ns.yaml", `
id: node-agent
name: Node Agent
chartType: custom
createNamespace: false
`)

		store, err := Load(dir)
		Expect(err).NotTo(HaveOccurred())

		def, _ := store.Get("node-agent")
		Expect(def.CreateNamespace).To(BeFalse())
	})

	It("skips definitions that fail validation", func() {
		writeDefinition(dir, "broken.yaml", `
id: broken
name: Broken
chartType: upstream
`)
		writeDefinition(dir, "ok.yaml", `
id: ok
name: OK
chartType: custom
`)

		store, err := Load(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Has("broken")).To(BeFalse())
		Expect(store.Has("ok")).To(BeTrue())
	})

	It("loads category metadata", func() {
		writeDefinition(dir, "ingress.yaml", `
id: ingress-nginx
name: Ingress NGINX
category: ingress
chartType: custom
`)
		Expect(os.WriteFile(filepath.Join(dir, "categories.yaml"), []byte(`
categories:
  ingress:
    name: Ingress
    icon: "🌐"
    priority: 20
`), 0o644)).To(Succeed())

		store, err := Load(dir)
		Expect(err).NotTo(HaveOccurred())

		cat := store.Category("ingress")
		Expect(cat.Name).To(Equal("Ingress"))
		Expect(cat.Priority).To(Equal(20))

		fallback := store.Category("unknown")
		Expect(fallback.Priority).To(Equal(100))
		Expect(fallback.Name).To(Equal("unknown"))
	})
})

var _ = Describe("Definition", func() {
	It("accepts a scalar where a list is expected", func() {
		var def Definition
		Expect(yaml.Unmarshal([]byte(`
id: cert-manager
name: cert-manager
chartType: custom
requiresCrds: cert-manager-crds
`), &def)).To(Succeed())
		Expect(def.RequiresCrds).To(Equal(StringList{"cert-manager-crds"}))
	})

	It("derives the effective namespace", func() {
		def := Definition{ID: "grafana"}
		Expect(def.EffectiveNamespace()).To(Equal("grafana"))

		def.Namespace = "monitoring"
		Expect(def.EffectiveNamespace()).To(Equal("monitoring"))

		crds := Definition{ID: "prometheus-crds"}
		Expect(crds.IsCRD()).To(BeTrue())
		Expect(crds.EffectiveNamespace()).To(Equal(CRDNamespace))
	})

	It("rejects instance definitions without an operator reference", func() {
		def := Definition{ID: "grafana-instance", ChartType: ChartTypeCustom, IsInstance: true}
		Expect(def.Validate()).To(MatchError(ContainSubstring("instanceOf")))
	})
})

var _ = Describe("ValidateValues", func() {
	var def Definition

	BeforeEach(func() {
		def = Definition{}
		Expect(yaml.Unmarshal([]byte(`
id: ingress-nginx
name: Ingress NGINX
chartType: custom
jsonSchema:
  type: object
  properties:
    replicas:
      type: integer
      minimum: 1
`), &def)).To(Succeed())
	})

	It("accepts conforming values", func() {
		var vals values.Tree
		Expect(yaml.Unmarshal([]byte("replicas: 3"), &vals)).To(Succeed())
		Expect(def.ValidateValues(&vals)).To(Succeed())
	})

	It("rejects non-conforming values", func() {
		var vals values.Tree
		Expect(yaml.Unmarshal([]byte("replicas: zero"), &vals)).To(Succeed())
		Expect(def.ValidateValues(&vals)).To(MatchError(ContainSubstring("ingress-nginx")))
	})

	It("accepts anything when no schema is declared", func() {
		plain := Definition{ID: "plain", ChartType: ChartTypeCustom}
		var vals values.Tree
		Expect(yaml.Unmarshal([]byte("whatever: true"), &vals)).To(Succeed())
		Expect(plain.ValidateValues(&vals)).To(Succeed())
	})
})
