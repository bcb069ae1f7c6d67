// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// MeterConfig configures the global meter provider.
type MeterConfig struct {
	// ServiceName identifies the service on exported metrics. Required.
	ServiceName string
	// ServiceVersion is recorded on the metric resource.
	ServiceVersion string
	// Endpoint is the OTLP gRPC collector address, host:port.
	Endpoint string
	// Insecure disables TLS on the collector connection.
	Insecure bool
	// ExportInterval is the push period. Defaults to 30s.
	ExportInterval time.Duration
}

// InitMeter installs a global OTLP-exporting meter provider and returns
// its shutdown function.
func InitMeter(ctx context.Context, cfg MeterConfig) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if cfg.ExportInterval <= 0 {
		cfg.ExportInterval = 30 * time.Second
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporterOpts []otlpmetricgrpc.Option
	if cfg.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.ExportInterval)),
		),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Meter returns a meter for the given component name from the global
// provider.
func Meter(componentName string) metric.Meter {
	return otel.Meter(componentName)
}

// CommonMetrics bundles the request instruments shared by the HTTP
// middleware.
type CommonMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ErrorsTotal     metric.Int64Counter
	ActiveRequests  metric.Int64UpDownCounter
}

// NewCommonMetrics registers the request instruments under the given
// name prefix.
func NewCommonMetrics(m metric.Meter, prefix string) (*CommonMetrics, error) {
	var (
		cm  CommonMetrics
		err error
	)

	cm.RequestsTotal, err = m.Int64Counter(
		prefix+"_requests_total",
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requests_total counter: %w", err)
	}

	cm.RequestDuration, err = m.Float64Histogram(
		prefix+"_request_duration_seconds",
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request_duration histogram: %w", err)
	}

	cm.ErrorsTotal, err = m.Int64Counter(
		prefix+"_errors_total",
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create errors_total counter: %w", err)
	}

	cm.ActiveRequests, err = m.Int64UpDownCounter(
		prefix+"_active_requests",
		metric.WithDescription("Number of currently active requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_requests counter: %w", err)
	}

	return &cm, nil
}
