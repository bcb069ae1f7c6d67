// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// HTTPMiddlewareConfig wires the middleware's instruments together.
type HTTPMiddlewareConfig struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	// Logger is enriched with trace IDs and attached to each request
	// context.
	Logger logr.Logger
	// ServiceName tags the emitted telemetry.
	ServiceName string
}

// responseWriter captures the status code and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// routePattern prefers the mux route template over the raw URL path so
// span names and metric labels stay low-cardinality for routes like
// /api/components/{id}.
func routePattern(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// HTTPMiddleware traces each request, records request metrics and
// attaches a trace-enriched logger to the request context.
func HTTPMiddleware(cfg HTTPMiddlewareConfig) func(http.Handler) http.Handler {
	requestCounter, _ := cfg.Meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	requestDuration, _ := cfg.Meter.Float64Histogram(
		"http_server_request_duration_seconds",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	activeRequests, _ := cfg.Meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Active HTTP requests"),
		metric.WithUnit("{request}"),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			pattern := routePattern(r)

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := cfg.Tracer.Start(ctx, r.Method+" "+pattern,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.ServerAddress(r.Host),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			logger := LoggerWithTraceContext(ctx, cfg.Logger)
			ctx = ContextWithLogger(ctx, logger)

			activeRequests.Add(ctx, 1)
			defer activeRequests.Add(ctx, -1)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			elapsed := time.Since(start).Seconds()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPResponseStatusCode(wrapped.statusCode),
				attribute.String("path", pattern),
			}
			requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
			requestDuration.Record(ctx, elapsed, metric.WithAttributes(attrs...))

			span.SetAttributes(
				semconv.HTTPResponseStatusCode(wrapped.statusCode),
				attribute.Int64("http.response.body.size", wrapped.written),
			)
			if wrapped.statusCode >= 400 {
				span.SetAttributes(attribute.Bool("error", true))
			}

			logger.V(1).Info("HTTP request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", elapsed*1000,
				"bytes", wrapped.written,
			)
		})
	}
}

// RecoveryMiddleware converts panics into 500 responses and logs them
// with the request-scoped logger when one is attached.
func RecoveryMiddleware(logger logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := LoggerFromContextOrDefault(r.Context(), logger)
					log.Error(nil, "Panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
					)

					span := trace.SpanFromContext(r.Context())
					span.SetAttributes(
						attribute.Bool("error", true),
						attribute.String("panic", "true"),
					)

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
