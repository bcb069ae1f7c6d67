// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package v1alpha1 contains the request and response payloads of the
// Cluster Forge bootstrap API.
package v1alpha1

import (
	"go.opendefense.cloud/forge/pkg/values"
)

// ComponentInstance describes one named instance of a multi-instance
// component. Each instance gets its own release and may carry its own
// value overlays.
type ComponentInstance struct {
	Name         string       `json:"name" yaml:"name"`
	Namespace    string       `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Values       *values.Tree `json:"values,omitempty" yaml:"values,omitempty"`
	RawOverrides string       `json:"rawOverrides,omitempty" yaml:"rawOverrides,omitempty"`
}

// ComponentSelection is a single entry of the user's component choice.
// Values holds structured overrides, RawOverrides is a free-form YAML
// snippet layered on top of Values.
type ComponentSelection struct {
	ID           string              `json:"id" yaml:"id"`
	Enabled      bool                `json:"enabled" yaml:"enabled"`
	Values       *values.Tree        `json:"values,omitempty" yaml:"values,omitempty"`
	RawOverrides string              `json:"rawOverrides,omitempty" yaml:"rawOverrides,omitempty"`
	Instances    []ComponentInstance `json:"instances,omitempty" yaml:"instances,omitempty"`
}

// GitConfig carries the target repository coordinates written into the
// generated repository's documentation and installer.
type GitConfig struct {
	RepoURL string `json:"repoUrl,omitempty" yaml:"repoUrl,omitempty"`
	Branch  string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// GenerateRequest is the payload of the bootstrap and preview endpoints.
type GenerateRequest struct {
	ClusterName string               `json:"clusterName" yaml:"clusterName"`
	Git         GitConfig            `json:"git,omitempty" yaml:"git,omitempty"`
	Components  []ComponentSelection `json:"components" yaml:"components"`
}

// UpdateRequest is the payload of the update endpoint. Checksums maps
// repository-relative file paths to the MD5 checksums recorded by a
// previous generation, ChartVersions maps chart directories to their
// recorded upstream versions.
type UpdateRequest struct {
	GenerateRequest `yaml:",inline"`

	Checksums     map[string]string `json:"checksums" yaml:"checksums"`
	ChartVersions map[string]string `json:"chartVersions,omitempty" yaml:"chartVersions,omitempty"`
}

// ResolutionPreview reports the outcome of dependency resolution
// without producing any artifacts.
type ResolutionPreview struct {
	Requested    []string `json:"requested"`
	Resolved     []string `json:"resolved"`
	AutoIncluded []string `json:"autoIncluded,omitempty"`
	Namespaces   []string `json:"namespaces,omitempty"`
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors,omitempty"`
}

// BootstrapResponse announces a generated repository held by the
// session store until it is downloaded or expires.
type BootstrapResponse struct {
	Token            string `json:"token"`
	DownloadPath     string `json:"downloadPath"`
	Command          string `json:"command"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
	FileCount        int    `json:"fileCount"`
}

// UpdateResponse announces a generated update bundle. Only files whose
// checksum differs from the recorded one are included.
type UpdateResponse struct {
	Token            string   `json:"token"`
	DownloadPath     string   `json:"downloadPath"`
	Command          string   `json:"command"`
	ExpiresInMinutes int      `json:"expiresInMinutes"`
	ChangedFiles     []string `json:"changedFiles"`
	ChangedCharts    []string `json:"changedCharts,omitempty"`
	UnchangedCount   int      `json:"unchangedCount"`
}

// ComponentInfo is the catalog listing shape handed to clients.
type ComponentInfo struct {
	ID            string       `json:"id"`
	Name          string       `json:"name,omitempty"`
	Description   string       `json:"description,omitempty"`
	Category      string       `json:"category"`
	Icon          string       `json:"icon,omitempty"`
	DocsURL       string       `json:"docsUrl,omitempty"`
	Version       string       `json:"version,omitempty"`
	DependsOn     []string     `json:"dependsOn,omitempty"`
	MultiInstance bool         `json:"multiInstance,omitempty"`
	IsInstance    bool         `json:"isInstance,omitempty"`
	InstanceOf    string       `json:"instanceOf,omitempty"`
	AlwaysInclude bool         `json:"alwaysInclude,omitempty"`
	Hidden        bool         `json:"hidden,omitempty"`
	DefaultValues *values.Tree `json:"defaultValues,omitempty"`
	HasSchema     bool         `json:"hasSchema,omitempty"`
}

// CategoryInfo is the category listing shape handed to clients.
type CategoryInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Priority    int    `json:"priority"`
}
