// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package resolve expands a user's component selection into the full
// set of components a cluster needs: transitive dependencies, CRD
// packages, always-installed components and auto-included companions.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"go.opendefense.cloud/forge/pkg/catalog"
)

// UnknownPolicy controls how the resolver treats component IDs that do
// not exist in the catalog.
type UnknownPolicy int

const (
	// IgnoreUnknown drops unknown IDs from the selection and from
	// dependency references. This is the default.
	IgnoreUnknown UnknownPolicy = iota
	// FailUnknown rejects a selection that names an unknown ID.
	// Unknown IDs inside dependency lists are still dropped.
	FailUnknown
)

// Resolver computes dependency closures against a component catalog.
type Resolver struct {
	store  *catalog.Store
	policy UnknownPolicy
	logger logr.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithUnknownPolicy sets the handling of unknown component IDs.
func WithUnknownPolicy(p UnknownPolicy) Option {
	return func(r *Resolver) { r.policy = p }
}

// New creates a Resolver over the given catalog.
func New(store *catalog.Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of a dependency resolution.
type Result struct {
	// IDs is the closed component set, ordered by ascending priority
	// with ties broken lexically by ID.
	IDs []string
	// AutoIncluded lists the IDs added by auto-include rules.
	AutoIncluded []string
	// AlwaysIncluded lists the IDs seeded independently of the request.
	AlwaysIncluded []string
}

// Has reports whether the resolved set contains the given ID.
func (res *Result) Has(id string) bool {
	for _, have := range res.IDs {
		if have == id {
			return true
		}
	}
	return false
}

// UnknownComponentError reports a requested ID missing from the catalog.
type UnknownComponentError struct {
	ID string
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unknown component %q", e.ID)
}

// OperatorError reports an instance component selected without its
// operator.
type OperatorError struct {
	Instance string
	Operator string
}

func (e *OperatorError) Error() string {
	return fmt.Sprintf("component %q requires operator %q to be selected", e.Instance, e.Operator)
}

// ValidationErrors aggregates selection problems so a caller can report
// all of them at once.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (v ValidationErrors) Unwrap() []error {
	return []error(v)
}

// ValidateSelection checks the raw requested set, before any closure is
// computed. Every instance component must be accompanied by its
// operator; all violations are collected and returned together. With
// FailUnknown, unknown IDs are reported as well.
func (r *Resolver) ValidateSelection(requested []string) error {
	selected := make(map[string]bool, len(requested))
	for _, id := range requested {
		selected[id] = true
	}

	var errs ValidationErrors
	for _, id := range requested {
		def, ok := r.store.Get(id)
		if !ok {
			if r.policy == FailUnknown {
				errs = append(errs, &UnknownComponentError{ID: id})
			}
			continue
		}
		if !def.IsInstance {
			continue
		}
		operator := def.RequiresOperator
		if operator == "" {
			operator = def.InstanceOf
		}
		if operator != "" && !selected[operator] {
			errs = append(errs, &OperatorError{Instance: id, Operator: operator})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Resolve computes the dependency closure of the requested IDs.
//
// The closure seeds the requested components together with every
// alwaysInclude component, then repeatedly adds dependencies and CRD
// packages until the set is stable. Auto-include rules are evaluated
// exactly once, against the closed set: a component auto-included in
// that sweep never triggers further auto-includes, though its own
// dependencies are still pulled in.
func (r *Resolver) Resolve(requested []string) (*Result, error) {
	selected := make(map[string]bool)
	res := &Result{}

	for _, id := range requested {
		if !r.store.Has(id) {
			if r.policy == FailUnknown {
				return nil, &UnknownComponentError{ID: id}
			}
			r.logger.V(1).Info("ignoring unknown component", "id", id)
			continue
		}
		selected[id] = true
	}

	for _, def := range r.store.All() {
		if def.AlwaysInclude && !selected[def.ID] {
			selected[def.ID] = true
			res.AlwaysIncluded = append(res.AlwaysIncluded, def.ID)
		}
	}
	sort.Strings(res.AlwaysIncluded)

	r.close(selected)

	// Single auto-include sweep against the closed set. Candidates are
	// collected first so that one auto-include cannot trigger another.
	var auto []string
	for _, def := range r.store.All() {
		if selected[def.ID] || def.AutoInclude == nil || len(def.AutoInclude.When) == 0 {
			continue
		}
		for _, trigger := range def.AutoInclude.When {
			if selected[trigger] {
				auto = append(auto, def.ID)
				break
			}
		}
	}
	sort.Strings(auto)
	for _, id := range auto {
		selected[id] = true
	}
	res.AutoIncluded = auto

	r.close(selected)

	res.IDs = make([]string, 0, len(selected))
	for id := range selected {
		res.IDs = append(res.IDs, id)
	}
	sort.Slice(res.IDs, func(i, j int) bool {
		a, _ := r.store.Get(res.IDs[i])
		b, _ := r.store.Get(res.IDs[j])
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})

	return res, nil
}

// close expands the set with dependencies and CRD packages until no new
// component is added. References to IDs missing from the catalog are
// dropped.
func (r *Resolver) close(selected map[string]bool) {
	for {
		added := false
		for id := range selected {
			def, ok := r.store.Get(id)
			if !ok {
				continue
			}
			for _, dep := range def.RequiresCrds {
				if r.store.Has(dep) && !selected[dep] {
					selected[dep] = true
					added = true
				}
			}
			for _, dep := range def.DependsOn {
				if !r.store.Has(dep) {
					r.logger.V(1).Info("dropping unknown dependency", "id", id, "dependency", dep)
					continue
				}
				if !selected[dep] {
					selected[dep] = true
					added = true
				}
			}
		}
		if !added {
			return
		}
	}
}
