// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package values

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Merge combines two trees. When both sides are mappings the merge recurses
// per key; any other combination is replaced wholesale by the overlay, so
// sequences are never concatenated or item-merged. Neither input is mutated.
func Merge(base, overlay *Tree) *Tree {
	if overlay == nil {
		if base == nil {
			return Null()
		}
		return base.Copy()
	}
	if base.Kind() != KindMapping || overlay.Kind() != KindMapping {
		return overlay.Copy()
	}

	result := Mapping()
	for _, e := range base.entries {
		result.Set(e.key, e.value.Copy())
	}
	for _, e := range overlay.entries {
		if existing := result.Get(e.key); existing != nil {
			result.Set(e.key, Merge(existing, e.value))
			continue
		}
		result.Set(e.key, e.value.Copy())
	}
	return result
}

// MergeLayers applies the component value precedence: defaults, then
// structured user values, then the parsed raw override document. Raw override
// text must already have passed ParseOverrides; a parse failure at this point
// is a programming error and surfaces as an error return rather than a
// silently dropped layer.
func MergeLayers(defaults, user *Tree, rawOverrides string) (*Tree, error) {
	result := Merge(defaults, user)

	raw, err := ParseOverrides(rawOverrides)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		result = Merge(result, raw)
	}
	return result, nil
}

// OverrideError reports raw override text that does not form a usable
// override document for a component.
type OverrideError struct {
	// Component is the id of the component the override was supplied for.
	Component string
	// Detail describes the fault. For syntax errors it carries the parser
	// message, which includes the offending line.
	Detail string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("invalid raw overrides for %q: %s", e.Component, e.Detail)
}

// ParseOverrides parses free-form override text. Empty or whitespace-only
// text is not an override at all and yields (nil, nil). Non-empty text must
// parse to a mapping at the top level.
func ParseOverrides(raw string) (*Tree, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var tree Tree
	if err := yaml.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, fmt.Errorf("%s", yamlErrorDetail(err))
	}
	if tree.Kind() == KindNull {
		return nil, nil
	}
	if tree.Kind() != KindMapping {
		return nil, fmt.Errorf("must be a YAML mapping (key: value), got %s", kindName(tree.Kind()))
	}
	return &tree, nil
}

// ValidateOverrides checks override text for a component and wraps failures
// in an OverrideError. Used by request validation, which must reject the
// whole request before any synthesis begins.
func ValidateOverrides(componentID, raw string) error {
	if _, err := ParseOverrides(raw); err != nil {
		return &OverrideError{Component: componentID, Detail: err.Error()}
	}
	return nil
}

func yamlErrorDetail(err error) string {
	// yaml.v3 prefixes every message with "yaml: "; the remainder already
	// carries line information where available.
	return strings.TrimPrefix(err.Error(), "yaml: ")
}

func kindName(k Kind) string {
	switch k {
	case KindScalar:
		return "a scalar"
	case KindSequence:
		return "a sequence"
	case KindMapping:
		return "a mapping"
	default:
		return "null"
	}
}
