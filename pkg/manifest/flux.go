// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"go.opendefense.cloud/forge/pkg/values"
)

const (
	helmReleaseAPIVersion   = "helm.toolkit.fluxcd.io/v2"
	kustomizationAPIVersion = "kustomize.toolkit.fluxcd.io/v1"
	gitRepositoryAPIVersion = "source.toolkit.fluxcd.io/v1"

	// fluxNamespace holds all Flux objects of the cluster.
	fluxNamespace = "flux-system"
	// gitRepositoryName is the GitRepository source created during
	// bootstrap that every Kustomization and chart reference points at.
	gitRepositoryName = "flux-system"

	defaultInterval      = "10m"
	defaultRetryInterval = "2m"
)

type objectMeta struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace,omitempty"`
}

type sourceRef struct {
	Kind      string `yaml:"kind"`
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace,omitempty"`
}

type dependencyRef struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace,omitempty"`
}

type helmRelease struct {
	APIVersion string          `yaml:"apiVersion"`
	Kind       string          `yaml:"kind"`
	Metadata   objectMeta      `yaml:"metadata"`
	Spec       helmReleaseSpec `yaml:"spec"`
}

type helmReleaseSpec struct {
	Interval        string            `yaml:"interval"`
	Timeout         string            `yaml:"timeout,omitempty"`
	ReleaseName     string            `yaml:"releaseName"`
	TargetNamespace string            `yaml:"targetNamespace,omitempty"`
	Chart           helmChartTemplate `yaml:"chart"`
	DependsOn       []dependencyRef   `yaml:"dependsOn,omitempty"`
	Install         *remediationSpec  `yaml:"install,omitempty"`
	Upgrade         *remediationSpec  `yaml:"upgrade,omitempty"`
	Values          *values.Tree      `yaml:"values,omitempty"`
}

type helmChartTemplate struct {
	Spec helmChartTemplateSpec `yaml:"spec"`
}

type helmChartTemplateSpec struct {
	Chart     string    `yaml:"chart"`
	SourceRef sourceRef `yaml:"sourceRef"`
}

type remediationSpec struct {
	Remediation retriesSpec `yaml:"remediation"`
}

type retriesSpec struct {
	Retries int `yaml:"retries"`
}

type gitRepository struct {
	APIVersion string            `yaml:"apiVersion"`
	Kind       string            `yaml:"kind"`
	Metadata   objectMeta        `yaml:"metadata"`
	Spec       gitRepositorySpec `yaml:"spec"`
}

type gitRepositorySpec struct {
	Interval  string    `yaml:"interval"`
	URL       string    `yaml:"url"`
	Ref       gitRef    `yaml:"ref"`
	SecretRef *localRef `yaml:"secretRef,omitempty"`
}

type localRef struct {
	Name string `yaml:"name"`
}

type gitRef struct {
	Branch string `yaml:"branch"`
}

type kustomization struct {
	APIVersion string            `yaml:"apiVersion"`
	Kind       string            `yaml:"kind"`
	Metadata   objectMeta        `yaml:"metadata"`
	Spec       kustomizationSpec `yaml:"spec"`
}

type kustomizationSpec struct {
	Interval      string          `yaml:"interval"`
	RetryInterval string          `yaml:"retryInterval,omitempty"`
	Path          string          `yaml:"path"`
	Prune         bool            `yaml:"prune"`
	SourceRef     sourceRef       `yaml:"sourceRef"`
	DependsOn     []dependencyRef `yaml:"dependsOn,omitempty"`
	Wait          bool            `yaml:"wait,omitempty"`
}

// encodeYAML marshals v with two-space indentation and a trailing
// newline, the way every emitted manifest is formatted.
func encodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
