// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package update

import (
	"fmt"
	"strings"

	"go.opendefense.cloud/forge/pkg/manifest"
)

// BundleScript renders the one-shot installer that materializes a
// freshly generated repository tree on disk. Every file is embedded
// base64-encoded, so the script is the only artifact a user has to
// download.
func BundleScript(clusterName string, tree *manifest.Tree) (string, error) {
	var b strings.Builder

	b.WriteString("#!/usr/bin/env bash\n")
	fmt.Fprintf(&b, "# Bootstrap repository for cluster %q.\n", clusterName)
	b.WriteString("# Extracts the generated GitOps repository into a new directory.\n")
	b.WriteString("set -euo pipefail\n\n")

	fmt.Fprintf(&b, "TARGET_DIR=\"${1:-%s}\"\n", clusterName)
	b.WriteString(`
if [[ -e "${TARGET_DIR}" ]]; then
    echo "error: ${TARGET_DIR} already exists, refusing to overwrite" >&2
    exit 1
fi

mkdir -p "${TARGET_DIR}"
cd "${TARGET_DIR}"

extract_file() {
    local path="$1" mode="$2"
    mkdir -p "$(dirname "${path}")"
    base64 -d > "${path}"
    chmod "${mode}" "${path}"
    echo "    ${path}"
}

echo "==> Extracting repository"
`)

	for _, rec := range tree.Files() {
		mode := "644"
		if rec.Executable {
			mode = "755"
		}
		fmt.Fprintf(&b, "\nextract_file %q %s <<'FORGE_EOF'\n", rec.Path, mode)
		b.WriteString(wrapBase64(rec.Content))
		b.WriteString("FORGE_EOF\n")
	}

	fmt.Fprintf(&b, `
echo ""
echo "Repository extracted to ${TARGET_DIR} (%d files)."
echo ""
echo "Next steps:"
echo "  cd ${TARGET_DIR}"
echo "  git init && git add -A && git commit -m 'Initial bootstrap'"
echo "  ./vendor-charts.sh"
echo "  ./bootstrap.sh"
`, tree.Len())

	return b.String(), nil
}
