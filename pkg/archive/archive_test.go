// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/prism-cli/prism/internal/testutil"
	"github.com/prism-cli/prism/pkg/manifest"
)

const testManifest = `name: demo
version: 1.2.0
description: Demo package
structure:
  commands:
    - source: commands
      dest: .claude/commands/{name}
  scripts:
    - source: scripts
      dest: .claude/scripts/{name}
      pattern: "*.sh"
  claude_config:
    - source: demo.md
      dest: .claude/CLAUDE.md
variants:
  minimal:
    description: Core only
    include: ["commands/core/*"]
  broken:
    description: Matches nothing
    include: ["nowhere/**"]
`

func writeSource(t *testing.T) (string, *manifest.Manifest) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		manifest.FileName:                    testManifest,
		"commands/core/basic.md":             "basic",
		"commands/node_modules/dep/index.js": "dep",
		"commands/.DS_Store":                 "junk",
		"scripts/notes.txt":                  "not a script",
		"demo.md":                            "demo rules",
		"README.md":                          "readme",
		"LICENSE":                            "license",
		"other.txt":                          "not collected",
	})
	testutil.WriteFile(t, filepath.Join(dir, "scripts", "setup.sh"), "#!/bin/sh\n", 0o755)

	m, err := manifest.Load(dir)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return dir, m
}

func TestCollect(t *testing.T) {
	t.Parallel()

	dir, m := writeSource(t)
	got, err := Collect(dir, m)
	if err != nil {
		t.Fatalf("Collect() unexpected error: %v", err)
	}
	want := []string{
		manifest.FileName,
		"commands/core/basic.md",
		"scripts/setup.sh",
		"demo.md",
		"LICENSE",
		"README.md",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Collect() =\n%v\nwant\n%v", got, want)
	}

	again, err := Collect(dir, m)
	if err != nil || !slices.Equal(again, got) {
		t.Errorf("second Collect() = %v, %v; want stable result", again, err)
	}
}

func TestCollect_NoFiles(t *testing.T) {
	t.Parallel()

	m := manifest.Normalize(&manifest.Manifest{
		Name: "empty", Version: "1.0.0",
		Structure: []manifest.StructureSection{{Type: manifest.StructureCommands, Items: []manifest.StructureItem{
			{Source: "commands", Dest: ".claude/commands/{name}"},
		}}},
	})

	_, err := Collect(t.TempDir(), m)
	if !errors.Is(err, ErrNoFiles) {
		t.Fatalf("Collect() error = %v, want ErrNoFiles", err)
	}
	var noFiles *NoFilesError
	if !errors.As(err, &noFiles) {
		t.Errorf("Collect() error should be *NoFilesError, got %T", err)
	}
}

func TestIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel      string
		patterns []string
		want     bool
	}{
		{"node_modules/x.js", []string{"node_modules"}, true},
		{"a/node_modules/b/x.js", []string{"node_modules"}, true},
		{"a/.DS_Store", []string{".DS_Store"}, true},
		{"a/b.log", []string{"*.log"}, true},
		{"build/out/x", []string{"build/out"}, true},
		{"src/build/out/x", []string{"build/out"}, false},
		{"docs/draft/a.md", []string{"docs/**/a.md"}, true},
		{"node_modules_extra/x", []string{"node_modules"}, false},
		{"a/b.md", nil, false},
	}

	for _, tt := range tests {
		if got := Ignored(tt.rel, tt.patterns); got != tt.want {
			t.Errorf("Ignored(%q, %v) = %v, want %v", tt.rel, tt.patterns, got, tt.want)
		}
	}
}

func TestCreateAndExtract(t *testing.T) {
	t.Parallel()

	dir, m := writeSource(t)
	out := filepath.Join(t.TempDir(), "dist", DefaultFileName(m))

	archivePath, err := Create(dir, out, m)
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if filepath.Base(archivePath) != "demo-1.2.0.tar.gz" {
		t.Errorf("archive name = %q", filepath.Base(archivePath))
	}

	entries, err := List(archivePath)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	collected, _ := Collect(dir, m)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	if !slices.Equal(names, collected) {
		t.Errorf("archive entries = %v, want %v", names, collected)
	}

	dest := t.TempDir()
	root, err := Extract(archivePath, dest)
	if err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if root != dest {
		t.Errorf("Extract() root = %q, want %q", root, dest)
	}
	if got := testutil.MustReadFile(t, filepath.Join(root, "commands", "core", "basic.md")); got != "basic" {
		t.Errorf("extracted content = %q", got)
	}
	if testutil.Exists(filepath.Join(root, "other.txt")) {
		t.Error("uncollected file should not be archived")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(root, "scripts", "setup.sh"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0o100 == 0 {
			t.Errorf("setup.sh mode = %v, owner execute bit lost", info.Mode())
		}
	}

	if _, err := manifest.Load(root); err != nil {
		t.Errorf("extracted manifest does not load: %v", err)
	}
}

func TestCreate_NoFilesLeavesNothing(t *testing.T) {
	t.Parallel()

	m := manifest.Normalize(&manifest.Manifest{Name: "empty", Version: "1.0.0"})
	out := filepath.Join(t.TempDir(), "empty.tar.gz")

	if _, err := Create(t.TempDir(), out, m); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("Create() error = %v, want ErrNoFiles", err)
	}
	if testutil.Exists(out) {
		t.Error("no archive should be written")
	}
}

func writeRawArchive(t *testing.T, entries []tar.Header, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "raw.tar.gz")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer testutil.MustClose(t, f)

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for i := range entries {
		hdr := entries[i]
		if hdr.Typeflag == tar.TypeReg {
			hdr.Size = int64(len(body))
		}
		if err := tw.WriteHeader(&hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtract_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hdr  tar.Header
	}{
		{"parent escape", tar.Header{Name: "../evil.txt", Typeflag: tar.TypeReg, Mode: 0o644}},
		{"nested escape", tar.Header{Name: "a/../../evil.txt", Typeflag: tar.TypeReg, Mode: 0o644}},
		{"absolute", tar.Header{Name: "/tmp/evil.txt", Typeflag: tar.TypeReg, Mode: 0o644}},
		{"symlink", tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := writeRawArchive(t, []tar.Header{tt.hdr}, "x")
			if _, err := Extract(p, t.TempDir()); !errors.Is(err, ErrUnsafePath) {
				t.Errorf("Extract() error = %v, want ErrUnsafePath", err)
			}
		})
	}
}

func TestExtract_NestedRoot(t *testing.T) {
	t.Parallel()

	p := writeRawArchive(t, []tar.Header{
		{Name: "demo/", Typeflag: tar.TypeDir, Mode: 0o755},
		{Name: "demo/" + manifest.FileName, Typeflag: tar.TypeReg, Mode: 0o644},
	}, "name: demo\nversion: 1.0.0\n")

	dest := t.TempDir()
	root, err := Extract(p, dest)
	if err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if root != filepath.Join(dest, "demo") {
		t.Errorf("Extract() root = %q", root)
	}
}

func TestExtract_NoManifest(t *testing.T) {
	t.Parallel()

	p := writeRawArchive(t, []tar.Header{{Name: "a.txt", Typeflag: tar.TypeReg, Mode: 0o644}}, "a")
	if _, err := Extract(p, t.TempDir()); !errors.Is(err, manifest.ErrManifestNotFound) {
		t.Errorf("Extract() error = %v, want ErrManifestNotFound", err)
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	dir, m := writeSource(t)
	files, issues, err := Inspect(dir, m)
	if err != nil {
		t.Fatalf("Inspect() unexpected error: %v", err)
	}
	if len(files) == 0 {
		t.Error("Inspect() returned no files")
	}
	if len(issues) != 1 || issues[0].Field != "variants.broken" {
		t.Errorf("Inspect() issues = %v, want one for variants.broken", issues)
	}
}
