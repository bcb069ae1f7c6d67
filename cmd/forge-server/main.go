// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package main is the entrypoint for forge-server, the Cluster Forge
// bootstrap API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.opendefense.cloud/forge/internal/server"
	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/config"
	"go.opendefense.cloud/forge/pkg/observability"
	"go.opendefense.cloud/forge/pkg/session"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "forge-server",
		Short: "Cluster Forge - GitOps bootstrap repository generator",
		Long: `Cluster Forge serves a component catalog and generates complete
GitOps bootstrap repositories: wrapper charts, Flux release manifests,
install ordering and self-contained installer scripts.

Configuration is read from FORGE_* environment variables.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(catalogPath)
		},
	}

	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "Path to the component catalog directory (overrides FORGE_CATALOG_PATH)")

	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("forge-server %s\n", version)
			fmt.Printf("  commit:  %s\n", commit)
			fmt.Printf("  built:   %s\n", buildTime)
		},
	}
}

func run(catalogPath string) error {
	cfg := config.LoadBaseConfigFromEnv("FORGE")
	cfg.ServiceVersion = version
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if err := config.ValidateBaseConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.ValidateCatalogConfig(cfg.Catalog); err != nil {
		return fmt.Errorf("invalid catalog configuration: %w", err)
	}

	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	logger = logger.WithName(cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			SamplingRatio:  cfg.Telemetry.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()

		shutdownMeter, err := observability.InitMeter(ctx, observability.MeterConfig{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			ExportInterval: cfg.Telemetry.ExportInterval,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		defer func() { _ = shutdownMeter(context.Background()) }()
	}

	store, err := catalog.Load(cfg.Catalog.Path, catalog.WithLogger(logger.WithName("catalog")))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("catalog loaded", "path", cfg.Catalog.Path, "components", store.Len())

	sessions := session.NewStore(
		session.WithLogger(logger.WithName("sessions")),
		session.WithTTL(cfg.Session.TTL),
		session.WithCleanupInterval(cfg.Session.CleanupInterval),
	)
	defer sessions.Stop()

	srv := server.New(cfg, store, sessions, server.WithLogger(logger))
	return srv.Run(ctx)
}
