// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"go.opendefense.cloud/forge/pkg/catalog"
)

// vendorChart describes one upstream chart the vendor script pulls.
type vendorChart struct {
	ID         string
	Category   string
	Name       string
	Version    string
	Repository string
	OCI        bool
}

// vendorCharts lists the upstream charts of the set in plan order.
func (s *Synthesizer) vendorCharts(in Input) []vendorChart {
	var out []vendorChart
	for _, id := range in.Set.IDs() {
		def, ok := s.store.Get(id)
		if !ok || def.ChartType != catalog.ChartTypeUpstream {
			continue
		}
		up := def.Upstream
		if up == nil || up.Repository == "" {
			continue
		}
		name := up.ChartName
		if name == "" {
			name = def.ID
		}
		out = append(out, vendorChart{
			ID:         def.ID,
			Category:   def.Category,
			Name:       name,
			Version:    up.Version,
			Repository: up.Repository,
			OCI:        len(up.Repository) > 6 && up.Repository[:6] == "oci://",
		})
	}
	return out
}

type scriptData struct {
	ClusterName string
	RepoURL     string
	Branch      string
	Charts      []vendorChart
	Categories  []activeCategory
}

func (s *Synthesizer) addScripts(tree *Tree, cluster string, in Input) error {
	data := scriptData{
		ClusterName: cluster,
		RepoURL:     in.Git.RepoURL,
		Branch:      in.Git.EffectiveBranch(),
		Charts:      s.vendorCharts(in),
		Categories:  s.activeCategories(in.Set),
	}

	vendor, err := renderTemplate("vendor-charts.sh.tmpl", data)
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: "vendor-charts.sh", Content: vendor, Executable: true})

	bootstrap, err := renderTemplate("bootstrap.sh.tmpl", data)
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: "bootstrap.sh", Content: bootstrap, Executable: true})

	readme, err := renderTemplate("readme.md.tmpl", s.readmeData(cluster, in))
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: "README.md", Content: readme})

	return nil
}

type readmeCategory struct {
	Title      string
	Components []readmeComponent
}

type readmeComponent struct {
	Name    string
	Version string
}

type readmeData struct {
	ClusterName string
	RepoURL     string
	Branch      string
	Categories  []readmeCategory
}

func (s *Synthesizer) readmeData(cluster string, in Input) readmeData {
	data := readmeData{
		ClusterName: cluster,
		RepoURL:     in.Git.RepoURL,
		Branch:      in.Git.EffectiveBranch(),
	}

	byCategory := make(map[string][]readmeComponent)
	for _, id := range in.Set.IDs() {
		def, ok := s.store.Get(id)
		if !ok || def.ChartType == catalog.ChartTypeMeta || def.BootstrapInstall {
			continue
		}
		version := "custom"
		if def.Upstream != nil && def.Upstream.Version != "" {
			version = def.Upstream.Version
		}
		byCategory[def.Category] = append(byCategory[def.Category], readmeComponent{
			Name:    def.EffectiveName(),
			Version: version,
		})
	}

	for _, cat := range s.activeCategories(in.Set) {
		comps, ok := byCategory[cat.Name]
		if !ok {
			continue
		}
		data.Categories = append(data.Categories, readmeCategory{
			Title:      s.store.Category(cat.Name).EffectiveName(),
			Components: comps,
		})
	}
	return data
}
