// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"

	"go.opendefense.cloud/forge/pkg/apis/forge/v1alpha1"
	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/values"
)

// Entry is one release to synthesize: a resolved component, optionally
// bound to a named instance, with its effective value tree.
type Entry struct {
	Definition *catalog.Definition
	// Instance is the instance name for multi-instance components,
	// empty otherwise.
	Instance string
	// ReleaseName is the Helm release name, unique across the set.
	ReleaseName string
	// Namespace is the target namespace of the release.
	Namespace string
	// Values is the fully merged value tree (defaults, user values,
	// raw overrides, in that order).
	Values *values.Tree
}

// Set is the complete resolved release plan for one request.
type Set struct {
	Entries []Entry
	// Resolution is the closure the set was built from.
	Resolution *Result
}

// Entry returns the entry with the given release name, or nil.
func (s *Set) Entry(releaseName string) *Entry {
	for i := range s.Entries {
		if s.Entries[i].ReleaseName == releaseName {
			return &s.Entries[i]
		}
	}
	return nil
}

// IDs returns the component IDs of the set in plan order, without
// instance duplication.
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.Entries))
	seen := make(map[string]bool)
	for _, e := range s.Entries {
		if !seen[e.Definition.ID] {
			seen[e.Definition.ID] = true
			ids = append(ids, e.Definition.ID)
		}
	}
	return ids
}

// Build validates the request, resolves the dependency closure and
// merges the value layers of every resolved component into a release
// plan. Raw overrides that fail to parse are skipped during the merge;
// callers that want to reject them must validate the selection with
// values.ValidateOverrides beforehand.
func (r *Resolver) Build(req *v1alpha1.GenerateRequest) (*Set, error) {
	requested := req.EnabledIDs()

	if err := r.ValidateSelection(requested); err != nil {
		return nil, err
	}

	res, err := r.Resolve(requested)
	if err != nil {
		return nil, err
	}

	set := &Set{Resolution: res}
	for _, id := range res.IDs {
		def, _ := r.store.Get(id)
		sel := req.Selection(id)

		if def.MultiInstance && sel != nil && len(sel.Instances) > 0 {
			for _, inst := range sel.Instances {
				if inst.Name == "" {
					return nil, fmt.Errorf("component %q: instance name must not be empty", id)
				}
				entry, err := r.buildInstance(def, sel, inst)
				if err != nil {
					return nil, err
				}
				set.Entries = append(set.Entries, entry)
			}
			continue
		}

		entry := Entry{
			Definition:  def,
			ReleaseName: def.EffectiveReleaseName(),
			Namespace:   def.EffectiveNamespace(),
		}
		if sel != nil {
			entry.Values = r.mergeLayers(def, sel.Values, sel.RawOverrides)
		} else {
			entry.Values = r.mergeLayers(def, nil, "")
		}
		set.Entries = append(set.Entries, entry)
	}

	return set, nil
}

func (r *Resolver) buildInstance(def *catalog.Definition, sel *v1alpha1.ComponentSelection, inst v1alpha1.ComponentInstance) (Entry, error) {
	entry := Entry{
		Definition:  def,
		Instance:    inst.Name,
		ReleaseName: fmt.Sprintf("%s-%s", def.EffectiveReleaseName(), inst.Name),
		Namespace:   def.EffectiveNamespace(),
	}
	if inst.Namespace != "" {
		entry.Namespace = inst.Namespace
	}

	// Selection-level values apply to every instance, instance values
	// and raw overrides are layered on top.
	user := values.Merge(sel.Values, inst.Values)
	entry.Values = r.mergeLayers(def, user, inst.RawOverrides)
	return entry, nil
}

// mergeLayers merges defaults, user values and raw overrides, dropping
// raw overrides that do not parse.
func (r *Resolver) mergeLayers(def *catalog.Definition, user *values.Tree, raw string) *values.Tree {
	merged, err := values.MergeLayers(def.DefaultValues, user, raw)
	if err != nil {
		r.logger.V(1).Info("skipping unparseable raw overrides", "id", def.ID, "error", err.Error())
		return values.Merge(def.DefaultValues, user)
	}
	return merged
}
