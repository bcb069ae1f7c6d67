// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every failed check of a validation run.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any check failed.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator accumulates field checks. Checks chain and never short
// circuit, so one run reports every invalid field at once.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates an empty Validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) fail(field, format string, args ...interface{}) *Validator {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
	return v
}

// Required checks that a string is not blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.fail(field, "is required")
	}
	return v
}

// MinLength checks a minimum string length.
func (v *Validator) MinLength(field, value string, min int) *Validator {
	if len(value) < min {
		return v.fail(field, "must be at least %d characters", min)
	}
	return v
}

// MaxLength checks a maximum string length.
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		return v.fail(field, "must be at most %d characters", max)
	}
	return v
}

// InRange checks an inclusive integer range.
func (v *Validator) InRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		return v.fail(field, "must be between %d and %d", min, max)
	}
	return v
}

// Positive checks that an integer is greater than zero.
func (v *Validator) Positive(field string, value int) *Validator {
	if value <= 0 {
		return v.fail(field, "must be positive")
	}
	return v
}

// FloatInRange checks an inclusive float range.
func (v *Validator) FloatInRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		return v.fail(field, "must be between %f and %f", min, max)
	}
	return v
}

// OneOf checks membership in a fixed value set.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	return v.fail(field, "must be one of: %s", strings.Join(allowed, ", "))
}

// URL checks that a non-empty value parses as a URL.
func (v *Validator) URL(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := url.ParseRequestURI(value); err != nil {
		return v.fail(field, "must be a valid URL")
	}
	return v
}

// DirExists checks that a non-empty path names an existing directory.
func (v *Validator) DirExists(field, path string) *Validator {
	if path == "" {
		return v
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return v.fail(field, "directory does not exist: %s", path)
	case err == nil && !info.IsDir():
		return v.fail(field, "not a directory: %s", path)
	}
	return v
}

// FileExists checks that a non-empty path exists.
func (v *Validator) FileExists(field, path string) *Validator {
	if path == "" {
		return v
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v.fail(field, "file does not exist: %s", path)
	}
	return v
}

// Custom records the error of an arbitrary check under the given field.
func (v *Validator) Custom(field string, validate func() error) *Validator {
	if err := validate(); err != nil {
		return v.fail(field, "%s", err.Error())
	}
	return v
}

// Errors returns the accumulated failures.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// Validate returns the accumulated failures as an error, or nil when
// every check passed.
func (v *Validator) Validate() error {
	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// ValidateBaseConfig checks the fields every binary depends on.
func ValidateBaseConfig(cfg BaseConfig) error {
	v := NewValidator()

	v.Required("serviceName", cfg.ServiceName)
	v.OneOf("logging.level", cfg.Logging.Level, []string{"debug", "info", "warn", "error"})
	v.OneOf("logging.format", cfg.Logging.Format, []string{"json", "console"})

	v.InRange("server.port", cfg.Server.Port, 1, 65535)
	v.Positive("server.readTimeout", int(cfg.Server.ReadTimeout))
	v.Positive("server.writeTimeout", int(cfg.Server.WriteTimeout))

	if cfg.Telemetry.Enabled {
		v.Required("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatInRange("telemetry.sampleRate", cfg.Telemetry.SampleRate, 0.0, 1.0)
	}

	v.Required("catalog.path", cfg.Catalog.Path)

	v.Positive("session.ttl", int(cfg.Session.TTL))
	v.Positive("session.cleanupInterval", int(cfg.Session.CleanupInterval))

	return v.Validate()
}

// ValidateCatalogConfig checks the catalog location against the
// filesystem. Kept separate from ValidateBaseConfig so tests can build
// configs without a definitions directory on disk.
func ValidateCatalogConfig(cfg CatalogConfig) error {
	v := NewValidator()

	v.Required("catalog.path", cfg.Path)
	v.DirExists("catalog.path", cfg.Path)

	return v.Validate()
}
