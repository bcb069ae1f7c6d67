// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"
)

// Store is an immutable catalog snapshot. It is safe for concurrent use by
// any number of resolutions; Load builds a fresh snapshot and never touches
// an existing one.
type Store struct {
	definitions map[string]*Definition
	ordered     []*Definition
	categories  map[string]Category
}

// Option configures loading.
type Option func(*loader)

type loader struct {
	logger logr.Logger
}

// WithLogger sets the logger used to report skipped definition files.
func WithLogger(l logr.Logger) Option {
	return func(ld *loader) {
		ld.logger = l
	}
}

// Load reads every component definition from <dir>/components/*.yaml and the
// category metadata from <dir>/categories.yaml. Files that fail to parse or
// validate are skipped with a log line rather than failing the whole load, so
// one broken definition does not take the catalog down.
func Load(dir string, opts ...Option) (*Store, error) {
	ld := &loader{logger: logr.Discard()}
	for _, o := range opts {
		o(ld)
	}

	componentsDir := filepath.Join(dir, "components")
	entries, err := os.ReadDir(componentsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions directory: %w", err)
	}

	var definitions []*Definition
	for _, entry := range entries {
		if entry.IsDir() || (filepath.Ext(entry.Name()) != ".yaml" && filepath.Ext(entry.Name()) != ".yml") {
			continue
		}
		path := filepath.Join(componentsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read definition %s: %w", entry.Name(), err)
		}

		def := &Definition{}
		if err := yaml.Unmarshal(data, def); err != nil {
			ld.logger.Error(err, "skipping unparseable definition", "file", entry.Name())
			continue
		}
		if err := def.Validate(); err != nil {
			ld.logger.Error(err, "skipping invalid definition", "file", entry.Name())
			continue
		}
		definitions = append(definitions, def)
	}

	categories, err := loadCategories(filepath.Join(dir, "categories.yaml"))
	if err != nil {
		return nil, err
	}

	return NewStore(definitions, categories), nil
}

func loadCategories(path string) (map[string]Category, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	var doc struct {
		Categories map[string]Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	return doc.Categories, nil
}

// NewStore builds a snapshot from in-memory definitions, primarily for tests
// and embedded catalogs. Definitions are ordered by priority with a lexical
// id tie-break so iteration order is stable.
func NewStore(definitions []*Definition, categories map[string]Category) *Store {
	s := &Store{
		definitions: make(map[string]*Definition, len(definitions)),
		categories:  make(map[string]Category, len(categories)),
	}
	for _, def := range definitions {
		if _, exists := s.definitions[def.ID]; exists {
			continue
		}
		s.definitions[def.ID] = def
		s.ordered = append(s.ordered, def)
	}
	sort.SliceStable(s.ordered, func(i, j int) bool {
		if s.ordered[i].Priority != s.ordered[j].Priority {
			return s.ordered[i].Priority < s.ordered[j].Priority
		}
		return s.ordered[i].ID < s.ordered[j].ID
	})
	for id, cat := range categories {
		cat.ID = id
		s.categories[id] = cat
	}
	return s
}

// Get returns the definition for id.
func (s *Store) Get(id string) (*Definition, bool) {
	def, ok := s.definitions[id]
	return def, ok
}

// Has reports whether id exists in the catalog.
func (s *Store) Has(id string) bool {
	_, ok := s.definitions[id]
	return ok
}

// All returns the definitions ordered by (priority, id).
func (s *Store) All() []*Definition {
	return s.ordered
}

// IDs returns every catalog id ordered by (priority, id).
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.ordered))
	for _, def := range s.ordered {
		ids = append(ids, def.ID)
	}
	return ids
}

// Len returns the number of definitions in the snapshot.
func (s *Store) Len() int {
	return len(s.ordered)
}

// Category returns the metadata for a category id, falling back to a
// priority-100 default when categories.yaml does not mention it.
func (s *Store) Category(id string) Category {
	if cat, ok := s.categories[id]; ok {
		return cat
	}
	return Category{ID: id, Name: id, Icon: "📦", Priority: 100}
}

// Categories returns the category metadata for every category that has at
// least one visible definition, ordered by (priority, id).
func (s *Store) Categories() []Category {
	seen := map[string]bool{}
	var cats []Category
	for _, def := range s.ordered {
		if def.Hidden || seen[def.Category] {
			continue
		}
		seen[def.Category] = true
		cats = append(cats, s.Category(def.Category))
	}
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Priority != cats[j].Priority {
			return cats[i].Priority < cats[j].Priority
		}
		return cats[i].ID < cats[j].ID
	})
	return cats
}
