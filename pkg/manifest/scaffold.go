// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPackageExists is returned by Create when the target directory already
// holds a manifest.
var ErrPackageExists = errors.New("package already exists")

const scaffoldTemplate = `name: {{name}}
version: 0.1.0
description: {{description}}
author: ""
license: MIT
keywords: []

structure:
  commands:
    - source: commands
      dest: .claude/commands/{name}
  claude_config:
    - source: {{name}}.md
      dest: .claude/CLAUDE.md

variants:
  full:
    description: Everything in the package
    include:
      - "**/*"
  minimal:
    description: Core commands only
    include:
      - commands/core/*
      - {{name}}.md

hooks:
  postInstall: echo "installed {{name}}"
`

// Scaffold returns a starter manifest document for a package called name.
func Scaffold(name PackageName) ([]byte, error) {
	if ok, errs := name.IsValid(); !ok {
		return nil, errs[0]
	}
	doc := strings.NewReplacer(
		"{{name}}", string(name),
		"{{description}}", fmt.Sprintf("%q", "The "+string(name)+" package"),
	).Replace(scaffoldTemplate)
	return []byte(doc), nil
}

// Create writes a new package skeleton under parentDir/name: the manifest, a
// sample core command and the package's configuration block. It returns the
// package root.
func Create(parentDir string, name PackageName) (string, error) {
	doc, err := Scaffold(name)
	if err != nil {
		return "", err
	}

	root := filepath.Join(parentDir, string(name))
	if _, err := Find(root); err == nil {
		return "", fmt.Errorf("%w: %s", ErrPackageExists, root)
	}

	files := map[string]string{
		FileName: string(doc),
		filepath.Join("commands", "core", "hello.md"): "# hello\n\nSay hello from " + string(name) + ".\n",
		string(name) + ".md": "Instructions contributed by the " + string(name) + " package.\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		if err := atomicWriteFile(p, []byte(content)); err != nil {
			return "", err
		}
	}
	return root, nil
}

// atomicWriteFile writes data to a file atomically using temp file + rename.
func atomicWriteFile(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
