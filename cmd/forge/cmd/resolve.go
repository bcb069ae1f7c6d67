// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.opendefense.cloud/forge/pkg/apis/forge/v1alpha1"
	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/resolve"
)

func newResolveCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [component...]",
		Short: "Preview dependency resolution for a component selection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger()
			if err != nil {
				return err
			}
			store, err := root.loadCatalog(logger)
			if err != nil {
				return err
			}

			req := &v1alpha1.GenerateRequest{ClusterName: "preview"}
			for _, id := range args {
				req.Components = append(req.Components, v1alpha1.ComponentSelection{ID: id, Enabled: true})
			}

			resolver := resolve.New(store,
				resolve.WithLogger(logger),
				resolve.WithUnknownPolicy(resolve.FailUnknown),
			)
			set, err := resolver.Build(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Resolved %d components:\n", len(set.Resolution.IDs))
			auto := make(map[string]bool, len(set.Resolution.AutoIncluded))
			for _, id := range set.Resolution.AutoIncluded {
				auto[id] = true
			}
			always := make(map[string]bool, len(set.Resolution.AlwaysIncluded))
			for _, id := range set.Resolution.AlwaysIncluded {
				always[id] = true
			}
			for _, id := range set.Resolution.IDs {
				def, _ := store.Get(id)
				marker := ""
				switch {
				case auto[id]:
					marker = "  (auto-included)"
				case always[id]:
					marker = "  (always included)"
				}
				fmt.Fprintf(out, "  %3d  %s%s\n", def.Priority, id, marker)
			}

			fmt.Fprintf(out, "Namespaces:\n")
			for _, ns := range manifest.CollectNamespaces(set) {
				fmt.Fprintf(out, "  %s\n", ns)
			}
			return nil
		},
	}
}
