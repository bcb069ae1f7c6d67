// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/spf13/cobra"

	"go.opendefense.cloud/forge/pkg/apis/forge/v1alpha1"
	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/fetch"
	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/resolve"
)

type generateOptions struct {
	root *rootOptions

	cluster    string
	repoURL    string
	branch     string
	components []string
	configFile string
	output     string
	vendor     bool
	helmBinary string
}

func newGenerateCommand(root *rootOptions) *cobra.Command {
	opts := &generateOptions{root: root}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a bootstrap repository",
		Long: `Generate resolves the selected components, synthesizes the full
repository tree and writes it to the output directory. The selection
comes either from flags or from a previously exported forge.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.cluster, "cluster", "", "Cluster name")
	flags.StringVar(&opts.repoURL, "repo-url", "", "Git repository URL written into the generated tree")
	flags.StringVar(&opts.branch, "branch", "main", "Git branch")
	flags.StringSliceVar(&opts.components, "component", nil, "Component id to enable (repeatable)")
	flags.StringVarP(&opts.configFile, "config", "f", "", "Import the selection from a forge.yaml")
	flags.StringVarP(&opts.output, "output", "o", "", "Output directory (defaults to the cluster name)")
	flags.BoolVar(&opts.vendor, "vendor", false, "Vendor upstream charts with helm pull after generation")
	flags.StringVar(&opts.helmBinary, "helm-binary", "helm", "Helm binary used for vendoring")

	return cmd
}

func (o *generateOptions) request() (*v1alpha1.GenerateRequest, error) {
	if o.configFile != "" {
		data, err := os.ReadFile(o.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", o.configFile, err)
		}
		export, err := manifest.ParseExport(data)
		if err != nil {
			return nil, err
		}
		req := export.Request()
		if o.cluster != "" {
			req.ClusterName = o.cluster
		}
		return req, nil
	}

	if o.cluster == "" {
		return nil, fmt.Errorf("either --cluster or --config is required")
	}
	req := &v1alpha1.GenerateRequest{
		ClusterName: o.cluster,
		Git: v1alpha1.GitConfig{
			RepoURL: o.repoURL,
			Branch:  o.branch,
		},
	}
	for _, id := range o.components {
		req.Components = append(req.Components, v1alpha1.ComponentSelection{ID: id, Enabled: true})
	}
	return req, nil
}

func (o *generateOptions) run(cmd *cobra.Command) error {
	logger, err := o.root.logger()
	if err != nil {
		return err
	}
	store, err := o.root.loadCatalog(logger)
	if err != nil {
		return err
	}

	req, err := o.request()
	if err != nil {
		return err
	}
	if err := v1alpha1.ValidateClusterName(req.ClusterName); err != nil {
		return err
	}

	resolver := resolve.New(store,
		resolve.WithLogger(logger),
		resolve.WithUnknownPolicy(resolve.FailUnknown),
	)
	set, err := resolver.Build(req)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	tree, err := manifest.NewSynthesizer(store, manifest.WithLogger(logger)).Synthesize(manifest.Input{
		ClusterName: req.ClusterName,
		Git:         req.Git,
		Set:         set,
		Selections:  req.Components,
	})
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	output := o.output
	if output == "" {
		output = v1alpha1.NormalizeClusterName(req.ClusterName)
	}
	if err := tree.WriteTo(osfs.New(), output); err != nil {
		return fmt.Errorf("failed to write repository: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d files in %s (%d components, %d releases)\n",
		tree.Len(), output, len(set.Resolution.IDs), len(set.Entries))

	if o.vendor {
		if err := o.vendorCharts(cmd, set, output); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s/vendor-charts.sh to fetch the upstream charts.\n", output)
	}

	return nil
}

func (o *generateOptions) vendorCharts(cmd *cobra.Command, set *resolve.Set, output string) error {
	var reqs []fetch.Request
	seen := make(map[string]bool)
	for _, e := range set.Entries {
		def := e.Definition
		if def.ChartType != catalog.ChartTypeUpstream || def.Upstream == nil || seen[def.ID] {
			continue
		}
		seen[def.ID] = true
		reqs = append(reqs, fetch.Request{
			Dest:     filepath.Join(output, "charts", def.Category, def.ID, "charts"),
			Upstream: *def.Upstream,
		})
	}
	if len(reqs) == 0 {
		return nil
	}

	logger, _ := o.root.logger()
	vendorer := fetch.NewVendorer(
		fetch.WithLogger(logger),
		fetch.WithHelmBinary(o.helmBinary),
	)
	if err := vendorer.Vendor(cmd.Context(), reqs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Vendored %d upstream charts.\n", len(reqs))
	return nil
}
