// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package main is the entrypoint for the forge CLI, which generates
// and updates GitOps bootstrap repositories without the API server.
package main

import (
	"fmt"
	"os"

	"go.opendefense.cloud/forge/cmd/forge/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
