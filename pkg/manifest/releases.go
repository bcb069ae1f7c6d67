// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"sort"
	"strings"

	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/resolve"
	"go.opendefense.cloud/forge/pkg/values"
)

// releaseID is the manifest name of an entry's HelmRelease, unique
// across the whole set.
func releaseID(e *resolve.Entry) string {
	if e.Instance != "" {
		return e.Definition.ID + "-" + e.Instance
	}
	return e.Definition.ID
}

// addReleaseManifests emits one HelmRelease per entry below
// manifests/releases/<category>/. Meta components own no release.
func (s *Synthesizer) addReleaseManifests(tree *Tree, set *resolve.Set) error {
	for i := range set.Entries {
		e := &set.Entries[i]
		def := e.Definition
		if def.ChartType == catalog.ChartTypeMeta {
			continue
		}

		rel := helmRelease{
			APIVersion: helmReleaseAPIVersion,
			Kind:       "HelmRelease",
			Metadata: objectMeta{
				Name:      releaseID(e),
				Namespace: fluxNamespace,
			},
			Spec: helmReleaseSpec{
				Interval:        defaultInterval,
				Timeout:         def.Timeout,
				ReleaseName:     e.ReleaseName,
				TargetNamespace: e.Namespace,
				Chart: helmChartTemplate{
					Spec: helmChartTemplateSpec{
						Chart: fmt.Sprintf("./charts/%s/%s", def.Category, def.ID),
						SourceRef: sourceRef{
							Kind: "GitRepository",
							Name: gitRepositoryName,
						},
					},
				},
				DependsOn: s.releaseDependencies(def, set),
				Install:   &remediationSpec{Remediation: retriesSpec{Retries: 3}},
				Upgrade:   &remediationSpec{Remediation: retriesSpec{Retries: 3}},
				Values:    releaseValues(e),
			},
		}

		content, err := encodeYAML(&rel)
		if err != nil {
			return err
		}
		tree.Add(FileRecord{
			Path:    fmt.Sprintf("manifests/releases/%s/%s.yaml", def.Category, releaseID(e)),
			Content: content,
		})
	}
	return nil
}

// releaseValues returns the values block of an entry's HelmRelease.
// Wrapper charts expose the upstream chart as a dependency, so the
// values are nested under the upstream chart name.
func releaseValues(e *resolve.Entry) *values.Tree {
	v := e.Values
	if v == nil || v.IsEmpty() {
		return nil
	}
	if e.Definition.ChartType == catalog.ChartTypeCustom {
		return v
	}
	name := e.Definition.ID
	if up := e.Definition.Upstream; up != nil && up.ChartName != "" {
		name = up.ChartName
	}
	return values.Mapping().Set(name, v)
}

// releaseDependencies maps dependsOn to HelmRelease references. Flux
// bootstrap components and the namespaces chart are ordered through
// Kustomizations instead and dropped here.
func (s *Synthesizer) releaseDependencies(def *catalog.Definition, set *resolve.Set) []dependencyRef {
	var out []dependencyRef
	for _, dep := range def.DependsOn {
		if strings.HasPrefix(dep, "flux-") || dep == "namespaces" {
			continue
		}
		ref := dependencyRef{Name: dep}
		if e := set.Entry(dep); e != nil {
			ref.Namespace = e.Namespace
		} else if d, ok := s.store.Get(dep); ok {
			ref.Namespace = d.EffectiveNamespace()
		}
		out = append(out, ref)
	}
	return out
}

// addNamespacesRelease emits the HelmRelease that instantiates the
// namespaces chart with the collected namespace list.
func (s *Synthesizer) addNamespacesRelease(tree *Tree, namespaces []string) error {
	items := make([]*values.Tree, 0, len(namespaces))
	for _, ns := range namespaces {
		items = append(items, values.Mapping().Set("name", values.Scalar(ns)))
	}
	list := values.Sequence(items...)

	rel := helmRelease{
		APIVersion: helmReleaseAPIVersion,
		Kind:       "HelmRelease",
		Metadata: objectMeta{
			Name:      "namespaces",
			Namespace: fluxNamespace,
		},
		Spec: helmReleaseSpec{
			Interval:    defaultInterval,
			ReleaseName: "namespaces",
			Chart: helmChartTemplate{
				Spec: helmChartTemplateSpec{
					Chart: "./charts/core/namespaces",
					SourceRef: sourceRef{
						Kind: "GitRepository",
						Name: gitRepositoryName,
					},
				},
			},
			Values: values.Mapping().Set("namespaces", list),
		},
	}

	content, err := encodeYAML(&rel)
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: "manifests/namespaces/release.yaml", Content: content})
	return nil
}

// addFluxSource emits the GitRepository object every Kustomization and
// HelmRelease chart reference points at. SSH URLs get a secretRef for
// the deploy key created during bootstrap.
func (s *Synthesizer) addFluxSource(tree *Tree, in Input) error {
	repo := gitRepository{
		APIVersion: gitRepositoryAPIVersion,
		Kind:       "GitRepository",
		Metadata:   objectMeta{Name: gitRepositoryName, Namespace: fluxNamespace},
		Spec: gitRepositorySpec{
			Interval: defaultInterval,
			URL:      in.Git.RepoURL,
			Ref:      gitRef{Branch: in.Git.EffectiveBranch()},
		},
	}
	if strings.HasPrefix(in.Git.RepoURL, "ssh://") || strings.HasPrefix(in.Git.RepoURL, "git@") {
		repo.Spec.SecretRef = &localRef{Name: gitRepositoryName}
	}

	content, err := encodeYAML(&repo)
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: "manifests/flux/gitrepository.yaml", Content: content})
	return nil
}

// activeCategory pairs a category ID with its ordering priority.
type activeCategory struct {
	Name     string
	Priority int
}

// activeCategories returns the categories that own at least one
// release, ordered by category priority with ties broken by name.
func (s *Synthesizer) activeCategories(set *resolve.Set) []activeCategory {
	seen := make(map[string]bool)
	var out []activeCategory
	for i := range set.Entries {
		def := set.Entries[i].Definition
		if def.ChartType == catalog.ChartTypeMeta || seen[def.Category] {
			continue
		}
		seen[def.Category] = true
		out = append(out, activeCategory{
			Name:     def.Category,
			Priority: s.store.Category(def.Category).Priority,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// addKustomizations emits the static Flux Kustomizations: namespaces
// first, then one per active category, each depending on the previous
// so categories roll out in priority order.
func (s *Synthesizer) addKustomizations(tree *Tree, set *resolve.Set) error {
	ns := kustomization{
		APIVersion: kustomizationAPIVersion,
		Kind:       "Kustomization",
		Metadata:   objectMeta{Name: "namespaces", Namespace: fluxNamespace},
		Spec: kustomizationSpec{
			Interval:      defaultInterval,
			RetryInterval: defaultRetryInterval,
			Path:          "./manifests/namespaces",
			Prune:         true,
			SourceRef: sourceRef{
				Kind: "GitRepository",
				Name: gitRepositoryName,
			},
			Wait: true,
		},
	}
	content, err := encodeYAML(&ns)
	if err != nil {
		return err
	}
	tree.Add(FileRecord{Path: "manifests/kustomizations/00-namespaces.yaml", Content: content})

	prev := "namespaces"
	for _, cat := range s.activeCategories(set) {
		k := kustomization{
			APIVersion: kustomizationAPIVersion,
			Kind:       "Kustomization",
			Metadata:   objectMeta{Name: "releases-" + cat.Name, Namespace: fluxNamespace},
			Spec: kustomizationSpec{
				Interval:      defaultInterval,
				RetryInterval: defaultRetryInterval,
				Path:          "./manifests/releases/" + cat.Name,
				Prune:         true,
				SourceRef: sourceRef{
					Kind: "GitRepository",
					Name: gitRepositoryName,
				},
				DependsOn: []dependencyRef{{Name: prev}},
			},
		}
		content, err := encodeYAML(&k)
		if err != nil {
			return err
		}
		tree.Add(FileRecord{
			Path:    fmt.Sprintf("manifests/kustomizations/%02d-releases-%s.yaml", cat.Priority, cat.Name),
			Content: content,
		})
		prev = "releases-" + cat.Name
	}
	return nil
}
