// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package catalog provides the component definition catalog: the immutable,
// file-backed set of installable components and their category metadata.
// A loaded Store is a read-only snapshot; reloading builds a new snapshot
// instead of mutating one that requests may still be reading.
package catalog

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"

	"go.opendefense.cloud/forge/pkg/values"
)

// ChartType describes how a component's chart is produced.
type ChartType string

const (
	// ChartTypeUpstream wraps a vendored upstream chart.
	ChartTypeUpstream ChartType = "upstream"
	// ChartTypeCustom carries its own templates in the definition.
	ChartTypeCustom ChartType = "custom"
	// ChartTypeMeta owns no chart, namespace or release; meta components
	// exist only to widen the resolved set via auto-include.
	ChartTypeMeta ChartType = "meta"
)

// CRDSuffix marks components that install cluster-level schema extensions.
// All of them share the synthetic cluster-crds namespace.
const CRDSuffix = "-crds"

// Upstream pins the upstream chart a wrapper delegates to.
type Upstream struct {
	// Repository is the chart repository URL (https or oci scheme).
	Repository string `yaml:"repository"`
	// ChartName is the chart name within the repository.
	ChartName string `yaml:"chartName"`
	// Version is the pinned chart version.
	Version string `yaml:"version"`
}

// AutoInclude triggers inclusion of a component when any of the listed ids
// ends up in the resolved set.
type AutoInclude struct {
	When StringList `yaml:"when"`
}

// StringList accepts either a single scalar or a sequence in YAML. Several
// definition files in the wild use the scalar form for single-element lists.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*l = StringList{single}
		return nil
	}

	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// Definition describes one selectable unit of cluster functionality.
type Definition struct {
	// ID is the unique catalog key.
	ID string `yaml:"id"`
	// Name is the human-readable component name.
	Name string `yaml:"name"`
	// Description is shown in component listings.
	Description string `yaml:"description"`
	// Icon is an optional listing icon.
	Icon string `yaml:"icon"`
	// DocsURL links to upstream documentation.
	DocsURL string `yaml:"docsUrl"`

	// Category groups components for install ordering.
	Category string `yaml:"category" default:"apps"`
	// Priority orders components and categories; lower installs first.
	Priority int `yaml:"priority" default:"100"`

	// ChartType selects upstream wrapper, custom or meta behavior.
	ChartType ChartType `yaml:"chartType" default:"upstream"`
	// Upstream is required for upstream-type components.
	Upstream *Upstream `yaml:"upstream"`
	// Templates holds the template files of custom-type components.
	Templates map[string]string `yaml:"templates"`

	// DependsOn lists ids that must also be installed, and is carried into
	// the release descriptor's ready-ordering.
	DependsOn StringList `yaml:"dependsOn"`
	// RequiresCrds lists CRD components that must be installed first.
	RequiresCrds StringList `yaml:"requiresCrds"`
	// AutoInclude pulls this component in when a trigger id is resolved.
	AutoInclude *AutoInclude `yaml:"autoInclude"`
	// AlwaysInclude marks components present regardless of selection.
	AlwaysInclude bool `yaml:"alwaysInclude"`
	// BootstrapInstall marks core components applied by the installer
	// before GitOps reconciliation takes over.
	BootstrapInstall bool `yaml:"bootstrapInstall"`
	// Hidden components never show up in listings.
	Hidden bool `yaml:"hidden"`

	// Operator / instance pairing.
	IsOperator       bool       `yaml:"isOperator"`
	OperatorFor      string     `yaml:"operatorFor"`
	SuggestsInstance StringList `yaml:"suggestsInstances"`
	IsInstance       bool       `yaml:"isInstance"`
	InstanceOf       string     `yaml:"instanceOf"`
	MultiInstance    bool       `yaml:"multiInstance"`
	RequiresOperator string     `yaml:"requiresOperator"`

	// Namespace overrides the target namespace; empty means the component
	// id is used.
	Namespace string `yaml:"namespace"`
	// CreateNamespace controls whether the namespace chart creates the
	// target namespace.
	CreateNamespace bool `yaml:"createNamespace" default:"true"`
	// ReleaseName overrides the Helm release name; empty means the
	// component id (or id-instance for multi-instance entries).
	ReleaseName string `yaml:"releaseName"`
	// Timeout is the release install timeout.
	Timeout string `yaml:"timeout" default:"10m"`

	// DefaultValues is the lowest-precedence value layer.
	DefaultValues *values.Tree `yaml:"defaultValues"`
	// JSONSchema optionally constrains structured user values.
	JSONSchema *values.Tree `yaml:"jsonSchema"`
	// UISchema drives the configuration form and is passed through opaquely.
	UISchema *values.Tree `yaml:"uiSchema"`
}

// UnmarshalYAML implements Unmarshaler and adds support for default values
// via tags, which yaml does not do on its own.
func (d *Definition) UnmarshalYAML(unmarshal func(any) error) error {
	if err := defaults.Set(d); err != nil {
		return err
	}

	type plain Definition
	if err := unmarshal((*plain)(d)); err != nil {
		return err
	}

	return nil
}

// Validate checks data-authoring invariants a definition file must satisfy.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("definition has no id")
	}
	switch d.ChartType {
	case ChartTypeUpstream:
		if d.Upstream == nil || d.Upstream.Repository == "" || d.Upstream.ChartName == "" {
			return fmt.Errorf("definition %q: upstream chart reference is required for chartType upstream", d.ID)
		}
	case ChartTypeCustom, ChartTypeMeta:
	default:
		return fmt.Errorf("definition %q: unknown chartType %q", d.ID, d.ChartType)
	}
	if d.IsInstance && d.InstanceOf == "" {
		return fmt.Errorf("definition %q: isInstance requires instanceOf", d.ID)
	}
	return nil
}

// IsCRD reports whether the component installs cluster-level CRDs and
// therefore lives in the shared cluster-crds namespace.
func (d *Definition) IsCRD() bool {
	return strings.HasSuffix(d.ID, CRDSuffix)
}

// EffectiveNamespace is the namespace the component installs into when no
// instance override applies.
func (d *Definition) EffectiveNamespace() string {
	if d.IsCRD() {
		return CRDNamespace
	}
	if d.Namespace != "" {
		return d.Namespace
	}
	return d.ID
}

// EffectiveName is the display name of the component, falling back to
// its ID.
func (d *Definition) EffectiveName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// EffectiveReleaseName is the Helm release name of the component's base
// release.
func (d *Definition) EffectiveReleaseName() string {
	if d.ReleaseName != "" {
		return d.ReleaseName
	}
	return d.ID
}

// CRDNamespace is the synthetic namespace shared by all CRD components.
const CRDNamespace = "cluster-crds"

// Category is the display and ordering metadata of a component category.
type Category struct {
	// ID is the category key used in definitions.
	ID string `yaml:"-"`
	// Name is the display name.
	Name string `yaml:"name"`
	// Description is the display description.
	Description string `yaml:"description"`
	// Icon is the display icon.
	Icon string `yaml:"icon" default:"📦"`
	// Priority orders categories; lower installs first.
	Priority int `yaml:"priority" default:"100"`
}

// EffectiveName is the display name of the category, falling back to
// its ID.
func (c Category) EffectiveName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// UnmarshalYAML implements Unmarshaler with tag defaults.
func (c *Category) UnmarshalYAML(unmarshal func(any) error) error {
	if err := defaults.Set(c); err != nil {
		return err
	}

	type plain Category
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}

	return nil
}
