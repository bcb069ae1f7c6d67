// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading and validation for
// Cluster Forge components.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// BaseConfig aggregates the configuration shared by the forge binaries.
type BaseConfig struct {
	// ServiceName tags logs and telemetry.
	ServiceName string `json:"serviceName" yaml:"serviceName"`
	// ServiceVersion is the running build's version string.
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`

	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
	Session   SessionConfig   `json:"session" yaml:"session"`
}

// LoggingConfig selects the log backend behavior.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`
	// Format is json or console.
	Format string `json:"format" yaml:"format"`
	// Development enables the development logger preset.
	Development bool `json:"development" yaml:"development"`
}

// TelemetryConfig controls OTLP trace and metric export.
type TelemetryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Endpoint is the OTLP gRPC collector address.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `json:"insecure" yaml:"insecure"`
	// SampleRate is the sampled fraction of traces, 0 to 1.
	SampleRate float64 `json:"sampleRate" yaml:"sampleRate"`
	// ExportInterval is the metric push period.
	ExportInterval time.Duration `json:"exportInterval" yaml:"exportInterval"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
	// AllowedOrigins lists the origins accepted by CORS.
	AllowedOrigins []string `json:"allowedOrigins" yaml:"allowedOrigins"`

	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout  time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	// ShutdownTimeout bounds the graceful-shutdown drain.
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// Address returns the listener address in host:port form.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CatalogConfig locates the component catalog.
type CatalogConfig struct {
	// Path is the directory holding the component definitions and
	// categories.yaml.
	Path string `json:"path" yaml:"path"`
	// StrictSelection rejects requests naming unknown components
	// instead of silently dropping them.
	StrictSelection bool `json:"strictSelection" yaml:"strictSelection"`
}

// SessionConfig controls the download session store.
type SessionConfig struct {
	// TTL is the lifetime of a download token.
	TTL time.Duration `json:"ttl" yaml:"ttl"`
	// CleanupInterval is how often expired sessions are evicted.
	CleanupInterval time.Duration `json:"cleanupInterval" yaml:"cleanupInterval"`
	// OneTime restricts each token to a single download.
	OneTime bool `json:"oneTime" yaml:"oneTime"`
}

// DefaultBaseConfig returns the baseline configuration every binary
// starts from before env overrides.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		ServiceName:    "forge",
		ServiceVersion: "dev",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Endpoint:       "localhost:4317",
			Insecure:       true,
			SampleRate:     1.0,
			ExportInterval: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			Path: "./definitions",
		},
		Session: SessionConfig{
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
			OneTime:         true,
		},
	}
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// EnvLoader reads typed values from prefixed environment variables.
// Keys are uppercased and "." / "-" become "_", so a loader with
// prefix "FORGE" resolves "log.level" from FORGE_LOG_LEVEL.
type EnvLoader struct {
	prefix string
}

// NewEnvLoader creates a loader for the given variable prefix.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: strings.ToUpper(prefix)}
}

func (l *EnvLoader) envKey(key string) string {
	key = envKeyReplacer.Replace(strings.ToUpper(key))
	if l.prefix == "" {
		return key
	}
	return l.prefix + "_" + key
}

func (l *EnvLoader) lookup(key string) (string, bool) {
	v := os.Getenv(l.envKey(key))
	return v, v != ""
}

// GetString returns the variable's value, or def when unset.
func (l *EnvLoader) GetString(key, def string) string {
	if v, ok := l.lookup(key); ok {
		return v
	}
	return def
}

// GetStrings parses the variable as a comma-separated list, trimming
// whitespace around each element. Returns def when unset.
func (l *EnvLoader) GetStrings(key string, def []string) []string {
	v, ok := l.lookup(key)
	if !ok {
		return def
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// GetInt returns the variable parsed as an int, or def when unset or
// unparsable.
func (l *EnvLoader) GetInt(key string, def int) int {
	if v, ok := l.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GetBool returns the variable parsed as a bool, or def when unset or
// unparsable.
func (l *EnvLoader) GetBool(key string, def bool) bool {
	if v, ok := l.lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// GetFloat returns the variable parsed as a float64, or def when unset
// or unparsable.
func (l *EnvLoader) GetFloat(key string, def float64) float64 {
	if v, ok := l.lookup(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// GetDuration returns the variable parsed with time.ParseDuration, or
// def when unset or unparsable.
func (l *EnvLoader) GetDuration(key string, def time.Duration) time.Duration {
	if v, ok := l.lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// LoadBaseConfigFromEnv overlays DefaultBaseConfig with values from
// PREFIX_-scoped environment variables.
func LoadBaseConfigFromEnv(prefix string) BaseConfig {
	env := NewEnvLoader(prefix)
	cfg := DefaultBaseConfig()

	cfg.ServiceName = env.GetString("SERVICE_NAME", cfg.ServiceName)
	cfg.ServiceVersion = env.GetString("SERVICE_VERSION", cfg.ServiceVersion)

	cfg.Logging.Level = env.GetString("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = env.GetString("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Development = env.GetBool("LOG_DEVELOPMENT", cfg.Logging.Development)

	cfg.Telemetry.Enabled = env.GetBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = env.GetString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Insecure = env.GetBool("TELEMETRY_INSECURE", cfg.Telemetry.Insecure)
	cfg.Telemetry.SampleRate = env.GetFloat("TELEMETRY_SAMPLE_RATE", cfg.Telemetry.SampleRate)
	cfg.Telemetry.ExportInterval = env.GetDuration("TELEMETRY_EXPORT_INTERVAL", cfg.Telemetry.ExportInterval)

	cfg.Server.Host = env.GetString("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = env.GetInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.AllowedOrigins = env.GetStrings("SERVER_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.ReadTimeout = env.GetDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = env.GetDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = env.GetDuration("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = env.GetDuration("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Catalog.Path = env.GetString("CATALOG_PATH", cfg.Catalog.Path)
	cfg.Catalog.StrictSelection = env.GetBool("CATALOG_STRICT_SELECTION", cfg.Catalog.StrictSelection)

	cfg.Session.TTL = env.GetDuration("SESSION_TTL", cfg.Session.TTL)
	cfg.Session.CleanupInterval = env.GetDuration("SESSION_CLEANUP_INTERVAL", cfg.Session.CleanupInterval)
	cfg.Session.OneTime = env.GetBool("SESSION_ONE_TIME", cfg.Session.OneTime)

	return cfg
}
