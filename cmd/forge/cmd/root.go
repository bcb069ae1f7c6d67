// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the forge CLI subcommands.
package cmd

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/observability"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

type rootOptions struct {
	catalogPath string
	logLevel    string
}

// NewRootCommand builds the forge command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "forge",
		Short: "Generate GitOps bootstrap repositories from a component catalog",
		Long: `forge resolves component selections against a catalog of
definitions and synthesizes a complete GitOps repository: wrapper
charts, Flux release manifests, install ordering and installer
scripts.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.catalogPath, "catalog", "c", "./definitions", "Path to the component catalog directory")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newGenerateCommand(opts))
	root.AddCommand(newResolveCommand(opts))
	root.AddCommand(newUpdateCommand(opts))

	return root
}

func (o *rootOptions) logger() (logr.Logger, error) {
	return observability.NewLogger(observability.LoggerConfig{
		Level:    o.logLevel,
		Encoding: "console",
	})
}

func (o *rootOptions) loadCatalog(logger logr.Logger) (*catalog.Store, error) {
	store, err := catalog.Load(o.catalogPath, catalog.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", o.catalogPath, err)
	}
	return store, nil
}
