// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/resolve"
)

// reservedNamespaces exist on every cluster and are never created by
// the namespaces chart.
var reservedNamespaces = map[string]bool{
	"default":         true,
	"kube-system":     true,
	"kube-public":     true,
	"kube-node-lease": true,
	fluxNamespace:     true,
}

// CollectNamespaces returns the namespaces the resolved set needs, in
// first-seen plan order. The shared CRD namespace comes first when any
// CRD component is present. Components that opt out of namespace
// creation, meta components and bootstrap-installed components
// contribute nothing; reserved system namespaces are skipped.
func CollectNamespaces(set *resolve.Set) []string {
	var out []string
	seen := make(map[string]bool)

	for _, e := range set.Entries {
		if e.Definition.IsCRD() {
			if !seen[catalog.CRDNamespace] {
				seen[catalog.CRDNamespace] = true
				out = append(out, catalog.CRDNamespace)
			}
			break
		}
	}

	for _, e := range set.Entries {
		def := e.Definition
		if def.ChartType == catalog.ChartTypeMeta || def.BootstrapInstall || def.IsCRD() {
			continue
		}
		if !def.CreateNamespace {
			continue
		}
		ns := e.Namespace
		if ns == "" || reservedNamespaces[ns] || seen[ns] {
			continue
		}
		seen[ns] = true
		out = append(out, ns)
	}

	return out
}

// namespacesChartVersion derives a chart version from the namespace
// list so that a changed list produces a changed version and Flux picks
// up the new chart, while identical input stays byte-identical.
func namespacesChartVersion(namespaces []string) string {
	sum := md5.Sum([]byte(strings.Join(namespaces, "\n")))
	return "0.1.0+" + hex.EncodeToString(sum[:4])
}
