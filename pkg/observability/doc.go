// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package observability bundles the telemetry plumbing shared by the
// Cluster Forge binaries: OTLP tracing and metrics, a zap-backed
// logr.Logger, and HTTP middleware that ties the three together per
// request.
//
// A service initializes the global providers once at startup:
//
//	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
//	    ServiceName: "forge-server",
//	    Endpoint:    "otel-collector:4317",
//	})
//	...
//	defer tp.Shutdown(ctx)
//
//	shutdown, err := observability.InitMeter(ctx, observability.MeterConfig{
//	    ServiceName: "forge-server",
//	    Endpoint:    "otel-collector:4317",
//	})
//	...
//	defer shutdown(ctx)
//
// Handlers wrapped in HTTPMiddleware receive a context carrying a span
// and a trace-enriched logger, retrievable with LoggerFromContext.
// Spans are named after the mux route template so path parameters do
// not blow up cardinality.
package observability
