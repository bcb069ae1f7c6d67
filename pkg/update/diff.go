// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package update computes the difference between a freshly synthesized
// repository and the checksums recorded by a previous generation, and
// produces the script that applies only that difference to an existing
// installation.
package update

import (
	"sort"

	"go.opendefense.cloud/forge/pkg/manifest"
)

// Diff partitions a synthesized tree against recorded checksums.
type Diff struct {
	// Changed lists files that are new or whose content checksum
	// differs from the recorded one, sorted by path.
	Changed []string
	// Unchanged lists files whose checksum matches, sorted by path.
	Unchanged []string
	// Removed lists recorded paths that no longer exist, sorted.
	Removed []string
}

// Compute diffs the tree against prior checksums. Vendored chart files
// are not part of either side; the vendor script reproduces them.
func Compute(tree *manifest.Tree, prior map[string]string) Diff {
	var d Diff
	current := tree.Checksums()

	for p, sum := range current {
		if prev, ok := prior[p]; ok && prev == sum {
			d.Unchanged = append(d.Unchanged, p)
		} else {
			d.Changed = append(d.Changed, p)
		}
	}
	for p := range prior {
		if _, ok := current[p]; !ok {
			d.Removed = append(d.Removed, p)
		}
	}

	sort.Strings(d.Changed)
	sort.Strings(d.Unchanged)
	sort.Strings(d.Removed)
	return d
}

// Chart identifies one wrapper chart and its upstream version.
type Chart struct {
	// Dir is the chart directory relative to the repository root,
	// e.g. charts/system/cert-manager.
	Dir string
	// Version is the upstream chart version.
	Version string
}

// DiffCharts returns the chart directories whose upstream version is
// new or differs from the recorded one, sorted. Those charts need
// re-vendoring on the target.
func DiffCharts(current []Chart, prior map[string]string) []string {
	var out []string
	for _, c := range current {
		if prev, ok := prior[c.Dir]; !ok || prev != c.Version {
			out = append(out, c.Dir)
		}
	}
	sort.Strings(out)
	return out
}
