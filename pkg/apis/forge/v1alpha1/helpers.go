// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// NormalizeClusterName lowercases the name and replaces spaces and
// underscores with hyphens so the result can be used in DNS labels and
// file paths.
func NormalizeClusterName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "-")
	n = strings.ReplaceAll(n, "_", "-")
	return n
}

// ValidateClusterName normalizes the name and rejects anything that
// does not form a valid DNS-1123 subdomain afterwards.
func ValidateClusterName(name string) error {
	n := NormalizeClusterName(name)
	if n == "" {
		return fmt.Errorf("cluster name must not be empty")
	}
	if errs := validation.IsDNS1123Subdomain(n); len(errs) > 0 {
		return fmt.Errorf("invalid cluster name %q: %s", name, errs[0])
	}
	return nil
}

// EnabledIDs returns the IDs of all enabled selections in request order.
func (r *GenerateRequest) EnabledIDs() []string {
	ids := make([]string, 0, len(r.Components))
	for _, c := range r.Components {
		if c.Enabled {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Selection returns the selection with the given ID, or nil.
func (r *GenerateRequest) Selection(id string) *ComponentSelection {
	for i := range r.Components {
		if r.Components[i].ID == id {
			return &r.Components[i]
		}
	}
	return nil
}

// EffectiveBranch returns the configured branch or "main".
func (g GitConfig) EffectiveBranch() string {
	if g.Branch == "" {
		return "main"
	}
	return g.Branch
}
