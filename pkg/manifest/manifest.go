// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package manifest synthesizes the GitOps bootstrap repository for a
// resolved component set: wrapper charts, Flux Kustomizations and
// HelmReleases, the namespaces chart and the supporting scripts.
package manifest

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// FileRecord is one file of a synthesized repository.
type FileRecord struct {
	// Path is the repository-relative path, slash-separated.
	Path string
	// Content is the full file content.
	Content []byte
	// Executable marks scripts that need the executable bit.
	Executable bool
}

// Checksum returns the MD5 checksum of the file content in hex.
func (f *FileRecord) Checksum() string {
	sum := md5.Sum(f.Content)
	return hex.EncodeToString(sum[:])
}

// Vendored reports whether the file belongs to a vendored upstream
// chart (charts/<category>/<id>/charts/...). Vendored content is
// reproduced by the vendor script and excluded from update diffing.
func (f *FileRecord) Vendored() bool {
	parts := strings.Split(f.Path, "/")
	return len(parts) > 4 && parts[0] == "charts" && parts[3] == "charts"
}

// Tree is an in-memory repository, ordered by path.
type Tree struct {
	files map[string]*FileRecord
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{files: make(map[string]*FileRecord)}
}

// Add inserts or replaces a file.
func (t *Tree) Add(rec FileRecord) {
	rec.Path = path.Clean(rec.Path)
	t.files[rec.Path] = &rec
}

// AddString inserts a regular file with the given string content.
func (t *Tree) AddString(p, content string) {
	t.Add(FileRecord{Path: p, Content: []byte(content)})
}

// AddScript inserts an executable file with the given string content.
func (t *Tree) AddScript(p, content string) {
	t.Add(FileRecord{Path: p, Content: []byte(content), Executable: true})
}

// Get returns the file at the given path, or nil.
func (t *Tree) Get(p string) *FileRecord {
	return t.files[path.Clean(p)]
}

// Len returns the number of files.
func (t *Tree) Len() int {
	return len(t.files)
}

// Files returns all files sorted by path.
func (t *Tree) Files() []*FileRecord {
	out := make([]*FileRecord, 0, len(t.files))
	for _, f := range t.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Paths returns all file paths in sorted order.
func (t *Tree) Paths() []string {
	out := make([]string, 0, len(t.files))
	for p := range t.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Checksums returns the MD5 checksum of every non-vendored file, keyed
// by path.
func (t *Tree) Checksums() map[string]string {
	out := make(map[string]string, len(t.files))
	for p, f := range t.files {
		if f.Vendored() {
			continue
		}
		out[p] = f.Checksum()
	}
	return out
}

// WriteTo materializes the tree below dir on the given filesystem.
func (t *Tree) WriteTo(fs vfs.FileSystem, dir string) error {
	for _, f := range t.Files() {
		target := vfs.Join(fs, dir, f.Path)
		if err := fs.MkdirAll(vfs.Dir(fs, target), 0o755); err != nil {
			return err
		}
		mode := os.FileMode(0o644)
		if f.Executable {
			mode = 0o755
		}
		if err := vfs.WriteFile(fs, target, f.Content, mode); err != nil {
			return err
		}
	}
	return nil
}
