// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"go.opendefense.cloud/forge/pkg/apis/forge/v1alpha1"
	"go.opendefense.cloud/forge/pkg/catalog"
	"go.opendefense.cloud/forge/pkg/manifest"
	"go.opendefense.cloud/forge/pkg/resolve"
	"go.opendefense.cloud/forge/pkg/session"
	"go.opendefense.cloud/forge/pkg/update"
	"go.opendefense.cloud/forge/pkg/values"
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	preview := v1alpha1.ResolutionPreview{Requested: req.EnabledIDs()}

	set, err := s.resolver.Build(&req)
	if err != nil {
		preview.Errors = flattenErrors(err)
		respondJSON(w, http.StatusOK, preview)
		return
	}

	preview.Valid = true
	preview.Resolved = set.Resolution.IDs
	preview.AutoIncluded = set.Resolution.AutoIncluded
	preview.Namespaces = manifest.CollectNamespaces(set)
	respondJSON(w, http.StatusOK, preview)
}

type previewResponse struct {
	Resolved   []string `json:"resolved"`
	Namespaces []string `json:"namespaces"`
	Files      []string `json:"files"`
	FileCount  int      `json:"fileCount"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if details := s.validateRequest(&req); len(details) > 0 {
		respondErrors(w, http.StatusBadRequest, "invalid request", details)
		return
	}

	set, err := s.resolver.Build(&req)
	if err != nil {
		respondErrors(w, http.StatusBadRequest, "resolution failed", flattenErrors(err))
		return
	}

	tree, err := s.synthesize(&req, set)
	if err != nil {
		s.logger.Error(err, "preview synthesis failed", "cluster", req.ClusterName)
		respondError(w, http.StatusInternalServerError, "manifest synthesis failed")
		return
	}

	respondJSON(w, http.StatusOK, previewResponse{
		Resolved:   set.Resolution.IDs,
		Namespaces: manifest.CollectNamespaces(set),
		Files:      tree.Paths(),
		FileCount:  tree.Len(),
	})
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if details := s.validateRequest(&req); len(details) > 0 {
		respondErrors(w, http.StatusBadRequest, "invalid request", details)
		return
	}

	set, err := s.resolver.Build(&req)
	if err != nil {
		respondErrors(w, http.StatusBadRequest, "resolution failed", flattenErrors(err))
		return
	}

	tree, err := s.synthesize(&req, set)
	if err != nil {
		s.logger.Error(err, "synthesis failed", "cluster", req.ClusterName)
		respondError(w, http.StatusInternalServerError, "manifest synthesis failed")
		return
	}

	cluster := v1alpha1.NormalizeClusterName(req.ClusterName)
	script, err := update.BundleScript(cluster, tree)
	if err != nil {
		s.logger.Error(err, "bundle script generation failed", "cluster", cluster)
		respondError(w, http.StatusInternalServerError, "script generation failed")
		return
	}

	sess := s.sessions.Create(session.KindBootstrap, cluster, tree, script, s.cfg.Session.OneTime)
	s.logger.Info("bootstrap generated",
		"cluster", cluster,
		"components", len(set.Resolution.IDs),
		"files", tree.Len(),
	)

	respondJSON(w, http.StatusOK, v1alpha1.BootstrapResponse{
		Token:            sess.Token,
		DownloadPath:     "/bootstrap/" + sess.Token,
		Command:          fmt.Sprintf("curl -fsSL http://%s/bootstrap/%s | bash", r.Host, sess.Token),
		ExpiresInMinutes: int(s.cfg.Session.TTL.Minutes()),
		FileCount:        tree.Len(),
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := v1alpha1.ValidateClusterName(req.ClusterName); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := s.resolver.Build(&req.GenerateRequest)
	if err != nil {
		respondErrors(w, http.StatusBadRequest, "resolution failed", flattenErrors(err))
		return
	}

	tree, err := s.synthesize(&req.GenerateRequest, set)
	if err != nil {
		s.logger.Error(err, "update synthesis failed", "cluster", req.ClusterName)
		respondError(w, http.StatusInternalServerError, "manifest synthesis failed")
		return
	}

	diff := update.Compute(tree, req.Checksums)
	changedCharts := update.DiffCharts(currentCharts(set), req.ChartVersions)

	cluster := v1alpha1.NormalizeClusterName(req.ClusterName)
	script, err := update.Script(update.ScriptInput{
		ClusterName:   cluster,
		Branch:        req.Git.EffectiveBranch(),
		Tree:          tree,
		Diff:          diff,
		ChangedCharts: changedCharts,
	})
	if err != nil {
		s.logger.Error(err, "update script generation failed", "cluster", cluster)
		respondError(w, http.StatusInternalServerError, "script generation failed")
		return
	}

	sess := s.sessions.Create(session.KindUpdate, cluster, tree, script, s.cfg.Session.OneTime)
	s.logger.Info("update generated",
		"cluster", cluster,
		"changed", len(diff.Changed),
		"removed", len(diff.Removed),
		"charts", len(changedCharts),
	)

	respondJSON(w, http.StatusOK, v1alpha1.UpdateResponse{
		Token:            sess.Token,
		DownloadPath:     "/update/" + sess.Token,
		Command:          fmt.Sprintf("curl -fsSL http://%s/update/%s | bash", r.Host, sess.Token),
		ExpiresInMinutes: int(s.cfg.Session.TTL.Minutes()),
		ChangedFiles:     diff.Changed,
		ChangedCharts:    changedCharts,
		UnchangedCount:   len(diff.Unchanged),
	})
}

func (s *Server) handleDownload(kind session.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := mux.Vars(r)["token"]

		// Peek first so a token redeemed on the wrong path is not
		// consumed.
		if sess, ok := s.sessions.Peek(token); !ok || sess.Kind != kind {
			respondError(w, http.StatusNotFound, "unknown or expired token")
			return
		}
		sess, ok := s.sessions.Get(token)
		if !ok {
			respondError(w, http.StatusNotFound, "unknown or expired token")
			return
		}

		filename := fmt.Sprintf("%s-%s.sh", kind, sess.ClusterName)
		w.Header().Set("Content-Type", "text/x-shellscript")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = w.Write([]byte(sess.Script))
	}
}

func (s *Server) synthesize(req *v1alpha1.GenerateRequest, set *resolve.Set) (*manifest.Tree, error) {
	return s.synth.Synthesize(manifest.Input{
		ClusterName: req.ClusterName,
		Git:         req.Git,
		Set:         set,
		Selections:  req.Components,
	})
}

// validateRequest checks cluster name, raw override parseability and
// schema conformance of structured values. Messages are collected so a
// client can surface every problem at once.
func (s *Server) validateRequest(req *v1alpha1.GenerateRequest) []string {
	var details []string

	if err := v1alpha1.ValidateClusterName(req.ClusterName); err != nil {
		details = append(details, err.Error())
	}

	for _, sel := range req.Components {
		if !sel.Enabled {
			continue
		}
		if err := values.ValidateOverrides(sel.ID, sel.RawOverrides); err != nil {
			details = append(details, err.Error())
		}
		def, ok := s.store.Get(sel.ID)
		if ok {
			if err := def.ValidateValues(sel.Values); err != nil {
				details = append(details, err.Error())
			}
		}
		for _, inst := range sel.Instances {
			if err := values.ValidateOverrides(sel.ID+"/"+inst.Name, inst.RawOverrides); err != nil {
				details = append(details, err.Error())
			}
			if ok {
				if err := def.ValidateValues(values.Merge(sel.Values, inst.Values)); err != nil {
					details = append(details, err.Error())
				}
			}
		}
	}

	return details
}

// currentCharts lists the vendored chart directories of the resolved
// set with their pinned upstream versions.
func currentCharts(set *resolve.Set) []update.Chart {
	var charts []update.Chart
	seen := make(map[string]bool)
	for _, e := range set.Entries {
		def := e.Definition
		if def.ChartType != catalog.ChartTypeUpstream || def.Upstream == nil {
			continue
		}
		dir := fmt.Sprintf("charts/%s/%s", def.Category, def.ID)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		charts = append(charts, update.Chart{Dir: dir, Version: def.Upstream.Version})
	}
	return charts
}

// flattenErrors expands aggregated validation errors into one message
// per underlying cause.
func flattenErrors(err error) []string {
	var verrs resolve.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
