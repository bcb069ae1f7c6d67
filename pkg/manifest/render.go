// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"embed"
	"encoding/json"
	"maps"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"sigs.k8s.io/yaml"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// renderTemplate renders an embedded template to bytes. The templates
// use << >> delimiters so that Helm's {{ }} syntax passes through
// untouched.
func renderTemplate(name string, data any) ([]byte, error) {
	tpl, err := template.New(name).Delims("<<", ">>").Funcs(funcMap()).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func funcMap() template.FuncMap {
	f := sprig.TxtFuncMap()
	delete(f, "env")
	delete(f, "expandenv")

	extra := template.FuncMap{
		"toYaml": toYAML,
		"toJson": toJSON,
	}
	maps.Copy(f, extra)

	return f
}

func toYAML(v interface{}) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(string(data), "\n")
}

func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Swallow errors inside of a template.
		return ""
	}
	return string(data)
}
