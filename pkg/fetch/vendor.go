// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package fetch vendors upstream Helm charts into a generated
// repository tree by shelling out to helm pull, with rate limiting and
// retries against flaky chart registries.
package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"go.opendefense.cloud/forge/pkg/catalog"
)

// Request names one upstream chart and the directory it vendors into.
type Request struct {
	// Dest is the directory the chart is untarred into, typically
	// <repo>/charts/<category>/<id>/charts.
	Dest     string
	Upstream catalog.Upstream
}

// Vendorer runs helm pull for upstream charts.
type Vendorer struct {
	helmBin     string
	logger      logr.Logger
	rateLimiter *rate.Limiter
	backoff     func() backoff.BackOff
	timeout     time.Duration
}

// Option describes the available options for creating the Vendorer.
type Option func(*Vendorer)

func WithLogger(l logr.Logger) Option {
	return func(v *Vendorer) {
		v.logger = l
	}
}

// WithHelmBinary overrides the helm binary looked up on PATH.
func WithHelmBinary(bin string) Option {
	return func(v *Vendorer) {
		v.helmBin = bin
	}
}

// WithRateLimiter limits registry requests to one per interval with
// the given burst.
func WithRateLimiter(interval time.Duration, burst int) Option {
	return func(v *Vendorer) {
		v.rateLimiter = rate.NewLimiter(rate.Every(interval), burst)
	}
}

// WithExponentialBackoff retries transient pull failures with an
// exponential backoff strategy.
func WithExponentialBackoff(initialInterval, maxInterval, maxElapsedTime time.Duration) Option {
	return func(v *Vendorer) {
		v.backoff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initialInterval
			b.MaxInterval = maxInterval
			b.MaxElapsedTime = maxElapsedTime
			return b
		}
	}
}

// WithTimeout bounds a single helm invocation.
func WithTimeout(d time.Duration) Option {
	return func(v *Vendorer) {
		v.timeout = d
	}
}

// NewVendorer creates a Vendorer.
func NewVendorer(opts ...Option) *Vendorer {
	v := &Vendorer{
		helmBin: "helm",
		logger:  logr.Discard(),
		timeout: 2 * time.Minute,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// isRetryable determines if we should wait and try again.
func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout")
}

// Vendor pulls every requested chart. It keeps going on failure and
// returns the errors joined, so one broken registry does not abort the
// whole run.
func (v *Vendorer) Vendor(ctx context.Context, reqs []Request) error {
	var errs []string
	for _, req := range reqs {
		if err := v.vendorOne(ctx, req); err != nil {
			v.logger.Error(err, "failed to vendor chart", "chart", req.Upstream.ChartName, "repository", req.Upstream.Repository)
			errs = append(errs, fmt.Sprintf("%s: %v", req.Upstream.ChartName, err))
			continue
		}
		v.logger.Info("vendored chart", "chart", req.Upstream.ChartName, "version", req.Upstream.Version, "dest", req.Dest)
	}
	if len(errs) > 0 {
		return fmt.Errorf("vendoring failed for %d chart(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

func (v *Vendorer) vendorOne(ctx context.Context, req Request) error {
	if v.rateLimiter != nil {
		if err := v.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(req.Dest, 0o755); err != nil {
		return err
	}

	pull := func() error {
		err := v.pull(ctx, req)
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if v.backoff == nil {
		return v.pull(ctx, req)
	}
	return backoff.Retry(pull, backoff.WithContext(v.backoff(), ctx))
}

func (v *Vendorer) pull(ctx context.Context, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	up := req.Upstream
	var args []string
	if strings.HasPrefix(up.Repository, "oci://") {
		args = []string{"pull", fmt.Sprintf("%s/%s", up.Repository, up.ChartName), "--version", up.Version, "--untar", "--untardir", req.Dest}
	} else {
		args = []string{"pull", up.ChartName, "--repo", up.Repository, "--version", up.Version, "--untar", "--untardir", req.Dest}
	}

	cmd := exec.CommandContext(ctx, v.helmBin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("helm pull: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
