// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"go.opendefense.cloud/forge/pkg/values"
)

// HasSchema reports whether the definition constrains user values with a
// JSON schema.
func (d *Definition) HasSchema() bool {
	return d.JSONSchema != nil && !d.JSONSchema.IsEmpty()
}

// CompileSchema compiles the definition's value schema. Returns nil when the
// definition carries none.
func (d *Definition) CompileSchema() (*jsonschema.Schema, error) {
	if !d.HasSchema() {
		return nil, nil
	}

	raw, err := d.JSONSchema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("definition %q: schema is not valid JSON: %w", d.ID, err)
	}

	compiler := jsonschema.NewCompiler()
	url := fmt.Sprintf("forge://components/%s/values.schema.json", d.ID)
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("definition %q: failed to add schema resource: %w", d.ID, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("definition %q: failed to compile schema: %w", d.ID, err)
	}
	return schema, nil
}

// ValidateValues checks structured user values against the definition's
// schema. Definitions without a schema accept anything.
func (d *Definition) ValidateValues(userValues *values.Tree) error {
	schema, err := d.CompileSchema()
	if err != nil {
		return err
	}
	if schema == nil || userValues == nil || userValues.IsEmpty() {
		return nil
	}

	// Round-trip through JSON so the validator sees the number types it
	// expects rather than native YAML ints.
	raw, err := userValues.MarshalJSON()
	if err != nil {
		return fmt.Errorf("component %q: values are not valid JSON: %w", d.ID, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("component %q: values are not valid JSON: %w", d.ID, err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("component %q: values do not match schema: %w", d.ID, err)
	}
	return nil
}
