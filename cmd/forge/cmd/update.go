// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/resolve"
	"go.opendefense.cloud/forge/pkg/update"
)

type updateOptions struct {
	root *rootOptions

	dir    string
	dryRun bool
}

func newUpdateCommand(root *rootOptions) *cobra.Command {
	opts := &updateOptions{root: root}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Regenerate an existing bootstrap repository in place",
		Long: `Update re-reads the selection from the repository's forge.yaml,
regenerates the tree against the current catalog and applies only the
files whose content actually changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "d", ".", "Repository directory")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Report changes without writing anything")

	return cmd
}

func (o *updateOptions) run(cmd *cobra.Command) error {
	logger, err := o.root.logger()
	if err != nil {
		return err
	}
	store, err := o.root.loadCatalog(logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(o.dir, "forge.yaml"))
	if err != nil {
		return fmt.Errorf("not a bootstrap repository: %w", err)
	}
	export, err := manifest.ParseExport(data)
	if err != nil {
		return err
	}
	req := export.Request()

	set, err := resolve.New(store, resolve.WithLogger(logger)).Build(req)
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

	prior, err := diskChecksums(o.dir)
	if err != nil {
		return err
	}
	diff := update.Compute(tree, prior)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d changed, %d unchanged, %d removed\n",
		len(diff.Changed), len(diff.Unchanged), len(diff.Removed))
	for _, p := range diff.Changed {
		fmt.Fprintf(out, "  changed  %s\n", p)
	}
	for _, p := range diff.Removed {
		fmt.Fprintf(out, "  removed  %s\n", p)
	}

	if o.dryRun || (len(diff.Changed) == 0 && len(diff.Removed) == 0) {
		return nil
	}

	// Only changed files are touched. Vendored chart content is owned
	// by vendor-charts.sh and never written here.
	for _, p := range diff.Changed {
		rec := tree.Get(p)
		target := filepath.Join(o.dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
		mode := os.FileMode(0o644)
		if rec.Executable {
			mode = 0o755
		}
		if err := os.WriteFile(target, rec.Content, mode); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
	}
	for _, p := range diff.Removed {
		if err := os.Remove(filepath.Join(o.dir, filepath.FromSlash(p))); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}

	fmt.Fprintln(out, "Repository updated. Review, commit and push the changes.")
	return nil
}

// diskChecksums walks the repository and records the MD5 checksum of
// every generated file. Vendored chart contents and VCS metadata are
// skipped; the vendor script owns the former.
func diskChecksums(dir string) (map[string]string, error) {
	sums := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if vendoredPath(rel) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := md5.Sum(data)
		sums[rel] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan repository: %w", err)
	}
	return sums, nil
}

// vendoredPath reports whether a repository-relative path lies inside
// a vendored upstream chart (charts/<category>/<id>/charts/...).
func vendoredPath(rel string) bool {
	parts := strings.Split(rel, "/")
	return len(parts) > 4 && parts[0] == "charts" && parts[3] == "charts"
}
