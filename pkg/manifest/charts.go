// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"sort"
	"strings"

	chartv2 "helm.sh/helm/v4/pkg/chart/v2"
	"sigs.k8s.io/yaml"

	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/values"
)

// namespacesTemplate renders one Namespace object per entry of the
// release's namespaces value.
const namespacesTemplate = `{{- range .Values.namespaces }}
---
apiVersion: v1
kind: Namespace
metadata:
  name: {{ .name }}
  {{- with .labels }}
  labels: {{- toYaml . | nindent 4 }}
  {{- end }}
{{- end }}
`

// wrapperVersion normalizes an upstream chart version for use in the
// wrapper Chart.yaml. Helm requires plain SemVer there.
func wrapperVersion(v string) string {
	if v == "" || v == "*" {
		return "0.0.1"
	}
	return strings.TrimPrefix(v, "v")
}

// addWrapperChart emits the wrapper chart of an upstream component:
// a Chart.yaml declaring the vendored upstream as dependency, the
// default values nested under the upstream chart name, and a
// placeholder for the vendored chart itself.
func (s *Synthesizer) addWrapperChart(tree *Tree, def *catalog.Definition) error {
	up := def.Upstream
	if up == nil {
		return fmt.Errorf("component %q has no upstream chart reference", def.ID)
	}
	name := up.ChartName
	if name == "" {
		name = def.ID
	}

	base := fmt.Sprintf("charts/%s/%s", def.Category, def.ID)

	meta := &chartv2.Metadata{
		APIVersion:  chartv2.APIVersionV2,
		Name:        def.ID,
		Version:     wrapperVersion(up.Version),
		Description: fmt.Sprintf("Wrapper for %s", def.EffectiveName()),
		Dependencies: []*chartv2.Dependency{{
			Name:       name,
			Version:    up.Version,
			Repository: fmt.Sprintf("file://charts/%s", name),
		}},
	}
	if err := s.addChartYAML(tree, base+"/Chart.yaml", meta); err != nil {
		return err
	}

	defaults := def.DefaultValues
	if defaults == nil {
		defaults = values.Mapping()
	}
	content, err := encodeYAML(values.Mapping().Set(name, defaults))
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: base + "/values.yaml", Content: content})

	return s.addVendorPlaceholder(tree, base, name, up)
}

// addVendorPlaceholder emits a minimal stand-in below charts/ so the
// wrapper chart is loadable before the vendor script has run.
func (s *Synthesizer) addVendorPlaceholder(tree *Tree, base, name string, up *catalog.Upstream) error {
	dir := fmt.Sprintf("%s/charts/%s", base, name)

	meta := &chartv2.Metadata{
		APIVersion: chartv2.APIVersionV2,
		Name:       name,
		Version:    wrapperVersion(up.Version),
	}
	if err := s.addChartYAML(tree, dir+"/Chart.yaml", meta); err != nil {
		return err
	}
	tree.AddString(dir+"/values.yaml", "{}\n")

	var pull string
	if strings.HasPrefix(up.Repository, "oci://") {
		pull = fmt.Sprintf("helm pull %s/%s --version %s --untar", up.Repository, name, up.Version)
	} else {
		pull = fmt.Sprintf("helm repo add %s %s && helm pull %s/%s --version %s --untar", name, up.Repository, name, name, up.Version)
	}
	tree.AddString(dir+"/VENDOR_ME.md", fmt.Sprintf(
		"# %s - needs vendoring\n\nRun `./vendor-charts.sh` from the repository root, or manually:\n\n```bash\n%s\n```\n\nRepository: %s\nVersion: %s\n",
		name, pull, up.Repository, up.Version))

	return nil
}

// addCustomChart emits a self-contained chart carrying the component's
// own templates and its defaults as top-level values.
func (s *Synthesizer) addCustomChart(tree *Tree, def *catalog.Definition) error {
	base := fmt.Sprintf("charts/%s/%s", def.Category, def.ID)

	meta := &chartv2.Metadata{
		APIVersion:  chartv2.APIVersionV2,
		Name:        def.ID,
		Version:     "0.0.1",
		Description: def.Description,
	}
	if err := s.addChartYAML(tree, base+"/Chart.yaml", meta); err != nil {
		return err
	}

	defaults := def.DefaultValues
	if defaults == nil {
		defaults = values.Mapping()
	}
	content, err := encodeYAML(defaults)
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: base + "/values.yaml", Content: content})

	names := make([]string, 0, len(def.Templates))
	for n := range def.Templates {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		tree.AddString(fmt.Sprintf("%s/templates/%s", base, n), def.Templates[n])
	}

	return nil
}

// addNamespacesChart emits charts/core/namespaces. The namespace list
// itself lives in the HelmRelease values; the chart version is derived
// from the list so Flux reconciles when it changes.
func (s *Synthesizer) addNamespacesChart(tree *Tree, namespaces []string) error {
	meta := &chartv2.Metadata{
		APIVersion:  chartv2.APIVersionV2,
		Name:        "namespaces",
		Version:     namespacesChartVersion(namespaces),
		Description: "Namespaces required by the cluster's components",
	}
	if err := s.addChartYAML(tree, "charts/core/namespaces/Chart.yaml", meta); err != nil {
		return err
	}
	tree.AddString("charts/core/namespaces/values.yaml", "namespaces: []\n")
	tree.AddString("charts/core/namespaces/templates/namespaces.yaml", namespacesTemplate)
	return nil
}

func (s *Synthesizer) addChartYAML(tree *Tree, path string, meta *chartv2.Metadata) error {
	content, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: path, Content: content})
	return nil
}
