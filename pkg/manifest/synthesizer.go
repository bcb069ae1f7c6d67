// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"go.opendefense.cloud/forge/pkg/apis/forge/v1alpha1"
	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/resolve"
)

// Synthesizer turns a resolved component set into a complete GitOps
// repository tree. Synthesis is deterministic: the same input produces
// a byte-identical tree.
type Synthesizer struct {
	store  *catalog.Store
	logger logr.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger used for synthesis diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// NewSynthesizer creates a Synthesizer over the given catalog.
func NewSynthesizer(store *catalog.Store, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		store:  store,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries everything one synthesis run needs.
type Input struct {
	// ClusterName names the cluster; it is normalized before use.
	ClusterName string
	// Git points at the repository the generated tree will live in.
	Git v1alpha1.GitConfig
	// Set is the resolved release plan.
	Set *resolve.Set
	// Selections is the original user selection, embedded into the
	// generated tree so it can be re-imported later.
	Selections []v1alpha1.ComponentSelection
}

// Synthesize produces the full repository tree for the given input.
func (s *Synthesizer) Synthesize(in Input) (*Tree, error) {
	cluster := v1alpha1.NormalizeClusterName(in.ClusterName)
	tree := NewTree()
	namespaces := CollectNamespaces(in.Set)

	if err := s.addNamespacesChart(tree, namespaces); err != nil {
		return nil, err
	}
	if err := s.addNamespacesRelease(tree, namespaces); err != nil {
		return nil, err
	}

	for _, id := range in.Set.IDs() {
		def, ok := s.store.Get(id)
		if !ok {
			continue
		}
		switch {
		case def.ChartType == catalog.ChartTypeMeta:
			// Meta components only steer resolution.
		case def.ChartType == catalog.ChartTypeCustom:
			if err := s.addCustomChart(tree, def); err != nil {
				return nil, err
			}
		default:
			if err := s.addWrapperChart(tree, def); err != nil {
				return nil, err
			}
		}
	}

	if err := s.addReleaseManifests(tree, in.Set); err != nil {
		return nil, err
	}
	if err := s.addKustomizations(tree, in.Set); err != nil {
		return nil, err
	}
	if err := s.addFluxSource(tree, in); err != nil {
		return nil, err
	}
	if err := s.addScripts(tree, cluster, in); err != nil {
		return nil, err
	}
	if err := s.addConfigFile(tree, cluster, in); err != nil {
		return nil, err
	}
	s.addStaticFiles(tree)

	s.logger.V(1).Info("synthesized repository", "cluster", cluster,
		"files", tree.Len(), "namespaces", len(namespaces), "releases", len(in.Set.Entries))

	return tree, nil
}

// Export is the shape of the forge.yaml dropped into every generated
// repository. It carries enough of the original request to regenerate
// the repository later.
type Export struct {
	Version     string                        `yaml:"version"`
	ClusterName string                        `yaml:"clusterName"`
	RepoURL     string                        `yaml:"repoUrl,omitempty"`
	Branch      string                        `yaml:"branch"`
	Selections  []v1alpha1.ComponentSelection `yaml:"selections"`
}

// Request rebuilds the generate request the export was written from.
func (e *Export) Request() *v1alpha1.GenerateRequest {
	return &v1alpha1.GenerateRequest{
		ClusterName: e.ClusterName,
		Git: v1alpha1.GitConfig{
			RepoURL: e.RepoURL,
			Branch:  e.Branch,
		},
		Components: e.Selections,
	}
}

// ParseExport reads a forge.yaml payload.
func ParseExport(data []byte) (*Export, error) {
	var cfg Export
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse forge.yaml: %w", err)
	}
	if cfg.ClusterName == "" {
		return nil, fmt.Errorf("forge.yaml has no clusterName")
	}
	return &cfg, nil
}

func (s *Synthesizer) addConfigFile(tree *Tree, cluster string, in Input) error {
	cfg := Export{
		Version:     "1",
		ClusterName: cluster,
		RepoURL:     in.Git.RepoURL,
		Branch:      in.Git.EffectiveBranch(),
		Selections:  in.Selections,
	}
	content, err := encodeYAML(&cfg)
	if err != nil {
		return err
	}
	header := "# Cluster Forge configuration\n# Import this file to restore the component selection.\n"
	tree.AddString("forge.yaml", header+string(content))
	return nil
}

func (s *Synthesizer) addStaticFiles(tree *Tree) {
	tree.AddString(".gitignore", gitignoreContent)
	tree.AddString(".sops.yaml", sopsConfigContent)
	tree.AddString(".age/.gitkeep", "# Age keys directory\n")
}

const gitignoreContent = `.DS_Store
*.swp
.idea/
.vscode/

# Never commit private keys.
.age/key.txt
*.agekey
*.pem
id_*
!*.pub
secrets/
*.key
*.secret

# Bootstrap temp files
.flux-*.yaml
*.tmp

# Helm
.cache/
*.tgz
`

const sopsConfigContent = `# SOPS configuration
# Replace AGE_PUBLIC_KEY with the key from .age/key.pub
creation_rules:
  - path_regex: .*\.enc\.yaml$
    encrypted_regex: "^(data|stringData)$"
    age: AGE_PUBLIC_KEY
  - path_regex: secrets/.*\.yaml$
    encrypted_regex: "^(data|stringData)$"
    age: AGE_PUBLIC_KEY
`
