// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package update_test

import (
	"encoding/base64"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/update"
)

var _ = Describe("Script", func() {
	var tree *manifest.Tree

	BeforeEach(func() {
		tree = manifest.NewTree()
		tree.AddString("manifests/releases/system/cert-manager.yaml", "kind: HelmRelease\n")
		tree.AddScript("bootstrap.sh", "#!/usr/bin/env bash\n")
	})

	It("embeds only changed files", func() {
		script, err := update.Script(update.ScriptInput{
			ClusterName: "prod",
			Branch:      "main",
			Tree:        tree,
			Diff: update.Diff{
				Changed:   []string{"manifests/releases/system/cert-manager.yaml"},
				Unchanged: []string{"bootstrap.sh"},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		encoded := base64.StdEncoding.EncodeToString([]byte("kind: HelmRelease\n"))
		Expect(script).To(ContainSubstring(encoded))
		Expect(script).To(ContainSubstring(`write_file "manifests/releases/system/cert-manager.yaml"`))
		Expect(script).NotTo(ContainSubstring(`write_file "bootstrap.sh"`))
	})

	It("records the checksum and mode of each embedded file", func() {
		script, err := update.Script(update.ScriptInput{
			ClusterName: "prod",
			Branch:      "main",
			Tree:        tree,
			Diff:        update.Diff{Changed: []string{"bootstrap.sh"}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(script).To(ContainSubstring(tree.Get("bootstrap.sh").Checksum()))
		Expect(script).To(ContainSubstring(`755`))
	})

	It("removes files that disappeared", func() {
		script, err := update.Script(update.ScriptInput{
			ClusterName: "prod",
			Branch:      "main",
			Tree:        tree,
			Diff:        update.Diff{Removed: []string{"manifests/releases/apps/legacy.yaml"}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(script).To(ContainSubstring(`remove_file "manifests/releases/apps/legacy.yaml"`))
	})

	It("re-vendors changed charts", func() {
		script, err := update.Script(update.ScriptInput{
			ClusterName:   "prod",
			Branch:        "main",
			Tree:          tree,
			ChangedCharts: []string{"charts/system/cert-manager"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(script).To(ContainSubstring("./vendor-charts.sh"))
	})

	It("pushes to the configured branch", func() {
		script, err := update.Script(update.ScriptInput{
			ClusterName: "prod",
			Branch:      "develop",
			Tree:        tree,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(script).To(ContainSubstring(`git push origin "develop"`))
	})

	It("fails when a changed file is missing from the tree", func() {
		_, err := update.Script(update.ScriptInput{
			ClusterName: "prod",
			Branch:      "main",
			Tree:        tree,
			Diff:        update.Diff{Changed: []string{"no/such/file.yaml"}},
		})
		Expect(err).To(MatchError(ContainSubstring("no/such/file.yaml")))
	})
})
