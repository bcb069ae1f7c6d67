// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"go.opendefense.cloud/forge/pkg/apis/forge/v1alpha1"
	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/values"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.cfg.ServiceName,
		"version": s.cfg.ServiceVersion,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.store.Categories()
	out := make([]v1alpha1.CategoryInfo, 0, len(cats))
	for _, cat := range cats {
		out = append(out, v1alpha1.CategoryInfo{
			ID:          cat.ID,
			Name:        cat.EffectiveName(),
			Description: cat.Description,
			Icon:        cat.Icon,
			Priority:    cat.Priority,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	var out []v1alpha1.ComponentInfo
	for _, def := range s.store.All() {
		if def.Hidden {
			continue
		}
		out = append(out, componentInfo(def))
	}
	if out == nil {
		out = []v1alpha1.ComponentInfo{}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	def, ok := s.store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown component "+id)
		return
	}
	respondJSON(w, http.StatusOK, componentInfo(def))
}

func (s *Server) handleComponentSchema(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	def, ok := s.store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown component "+id)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		JSONSchema *values.Tree `json:"jsonSchema,omitempty"`
		UISchema   *values.Tree `json:"uiSchema,omitempty"`
	}{
		JSONSchema: def.JSONSchema,
		UISchema:   def.UISchema,
	})
}

func componentInfo(def *catalog.Definition) v1alpha1.ComponentInfo {
	info := v1alpha1.ComponentInfo{
		ID:            def.ID,
		Name:          def.EffectiveName(),
		Description:   def.Description,
		Category:      def.Category,
		Icon:          def.Icon,
		DocsURL:       def.DocsURL,
		DependsOn:     def.DependsOn,
		MultiInstance: def.MultiInstance,
		IsInstance:    def.IsInstance,
		InstanceOf:    def.InstanceOf,
		AlwaysInclude: def.AlwaysInclude,
		Hidden:        def.Hidden,
		DefaultValues: def.DefaultValues,
		HasSchema:     def.HasSchema(),
	}
	if def.Upstream != nil {
		info.Version = def.Upstream.Version
	}
	return info
}
