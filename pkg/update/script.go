// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package update

import (
	"encoding/base64"
	"fmt"
	"strings"

	"go.opendefense.cloud/forge/pkg/manifest"
)

// ScriptInput carries everything update script generation needs.
type ScriptInput struct {
	ClusterName string
	Branch      string
	Tree        *manifest.Tree
	Diff        Diff
	// ChangedCharts lists chart directories that need re-vendoring.
	ChangedCharts []string
}

// Script renders update.sh. The script is self-contained: changed
// files are embedded base64-encoded and only written when the local
// checksum actually differs, so re-running it is safe and unchanged
// files keep their timestamps and git history.
func Script(in ScriptInput) (string, error) {
	var b strings.Builder

	b.WriteString("#!/usr/bin/env bash\n")
	fmt.Fprintf(&b, "# Update script for cluster %q.\n", in.ClusterName)
	b.WriteString("# Applies only the files that changed since the last generation.\n")
	b.WriteString("set -euo pipefail\n\n")

	b.WriteString(`if [[ ! -f forge.yaml ]]; then
    echo "error: run this script from the root of the bootstrap repository" >&2
    exit 1
fi

UPDATED=0

write_file() {
    local path="$1" checksum="$2" mode="$3"
    local current=""

    if [[ -f "${path}" ]]; then
        current="$(md5sum "${path}" | cut -d' ' -f1)"
    fi
    if [[ "${current}" == "${checksum}" ]]; then
        echo "    unchanged ${path}"
        return
    fi

    mkdir -p "$(dirname "${path}")"
    base64 -d > "${path}"
    chmod "${mode}" "${path}"
    echo "    updated   ${path}"
    UPDATED=$((UPDATED + 1))
}

remove_file() {
    local path="$1"
    if [[ -f "${path}" ]]; then
        rm -f "${path}"
        echo "    removed   ${path}"
        UPDATED=$((UPDATED + 1))
    fi
}

echo "==> Applying file updates"
`)

	for _, p := range in.Diff.Changed {
		rec := in.Tree.Get(p)
		if rec == nil {
			return "", fmt.Errorf("changed file %q missing from tree", p)
		}
		mode := "644"
		if rec.Executable {
			mode = "755"
		}
		fmt.Fprintf(&b, "\nwrite_file %q %q %s <<'FORGE_EOF'\n", rec.Path, rec.Checksum(), mode)
		b.WriteString(wrapBase64(rec.Content))
		b.WriteString("FORGE_EOF\n")
	}

	for _, p := range in.Diff.Removed {
		fmt.Fprintf(&b, "\nremove_file %q\n", p)
	}

	if len(in.ChangedCharts) > 0 {
		b.WriteString("\necho \"==> Re-vendoring updated charts\"\n")
		b.WriteString("./vendor-charts.sh\n")
		for _, dir := range in.ChangedCharts {
			fmt.Fprintf(&b, "echo \"    re-vendored %s\"\n", dir)
		}
	}

	fmt.Fprintf(&b, `
if [[ "${UPDATED}" -eq 0 ]]; then
    echo "Everything up to date."
    exit 0
fi

echo "==> Committing ${UPDATED} change(s)"
git add -A
git commit -m "Update components"
git push origin %q

if command -v flux >/dev/null 2>&1; then
    echo "==> Triggering reconciliation"
    flux reconcile source git flux-system || true
fi

echo "Update complete."
`, in.Branch)

	return b.String(), nil
}

// wrapBase64 encodes content with line breaks so the embedded blocks
// stay readable and diffable.
func wrapBase64(content []byte) string {
	enc := base64.StdEncoding.EncodeToString(content)
	var b strings.Builder
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteByte('\n')
		enc = enc[76:]
	}
	if len(enc) > 0 {
		b.WriteString(enc)
		b.WriteByte('\n')
	}
	return b.String()
}
