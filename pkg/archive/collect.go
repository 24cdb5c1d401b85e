// SPDX-License-Identifier: MPL-2.0

// Package archive builds and reads distributable package archives.
//
// An archive is a gzip-compressed tar stream whose entries are the paths
// returned by Collect, relative to the package root. Regular files only;
// directories are implied by entry paths.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/prism-cli/prism/pkg/glob"
	"github.com/prism-cli/prism/pkg/manifest"
)

// ErrNoFiles is the sentinel wrapped by NoFilesError.
var ErrNoFiles = errors.New("no files found")

// conventionalFiles are root-level files shipped with every package when present.
var conventionalFiles = []string{"README", "LICENSE", "CHANGELOG"}

// NoFilesError is returned when collection selects nothing. Packaging an
// empty archive is always an error.
type NoFilesError struct {
	SourceDir string
}

// Error implements the error interface.
func (e *NoFilesError) Error() string {
	return fmt.Sprintf("no files found to package in %s", e.SourceDir)
}

// Unwrap returns ErrNoFiles.
func (e *NoFilesError) Unwrap() error { return ErrNoFiles }

// Collect returns the slash-separated, package-root relative paths that make
// up the package at sourceDir: the manifest file, every file below an existing
// structure source selected by the item's pattern and not excluded by the
// item or by m.Ignore, and any README, LICENSE or CHANGELOG at the root.
// The result has no duplicates and a stable order.
func Collect(sourceDir string, m *manifest.Manifest) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			files = append(files, rel)
		}
	}

	if p, err := manifest.Find(sourceDir); err == nil {
		add(filepath.Base(p))
	} else if !errors.Is(err, manifest.ErrManifestNotFound) {
		return nil, err
	}

	for _, entry := range m.Entries() {
		selected, err := collectItem(sourceDir, entry.Item, m.Ignore)
		if err != nil {
			return nil, err
		}
		for _, rel := range selected {
			add(rel)
		}
	}

	extras, err := collectConventional(sourceDir, m.Ignore)
	if err != nil {
		return nil, err
	}
	for _, rel := range extras {
		add(rel)
	}

	if len(files) == 0 {
		return nil, &NoFilesError{SourceDir: sourceDir}
	}
	return files, nil
}

// collectItem lists the files one structure item contributes. A missing
// source contributes nothing.
func collectItem(sourceDir string, item manifest.StructureItem, ignore []string) ([]string, error) {
	source := path.Clean(strings.ReplaceAll(item.Source, "\\", "/"))
	srcPath := filepath.Join(sourceDir, filepath.FromSlash(source))

	info, err := os.Stat(srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", srcPath, err)
	}

	var out []string
	if !info.IsDir() {
		if glob.Match(path.Base(source), item.Pattern) && !glob.MatchAny(path.Base(source), item.Exclude) && !Ignored(source, ignore) {
			out = append(out, source)
		}
		return out, nil
	}

	all, err := glob.Walk(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", srcPath, err)
	}
	for _, f := range glob.Select(all, item.Pattern, item.Exclude) {
		rel := glob.Join(source, f)
		if !Ignored(rel, ignore) {
			out = append(out, rel)
		}
	}
	return out, nil
}

func collectConventional(sourceDir string, ignore []string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourceDir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		upper := strings.ToUpper(e.Name())
		if !slices.ContainsFunc(conventionalFiles, func(prefix string) bool {
			return strings.HasPrefix(upper, prefix)
		}) {
			continue
		}
		if !Ignored(e.Name(), ignore) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Ignored reports whether the slash-separated relative path rel is excluded
// by one of patterns. Patterns follow gitignore conventions: a pattern without
// a slash matches any single path segment, so "node_modules" drops every file
// below any node_modules directory; a pattern with a slash is matched against
// the path and each of its parent directories.
func Ignored(rel string, patterns []string) bool {
	segments := strings.Split(rel, "/")
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "/"), "/")
		if pattern == "" {
			continue
		}
		if !strings.Contains(pattern, "/") {
			for _, seg := range segments {
				if ok, _ := doublestar.Match(pattern, seg); ok {
					return true
				}
			}
			continue
		}
		for i := len(segments); i > 0; i-- {
			if ok, _ := doublestar.Match(pattern, strings.Join(segments[:i], "/")); ok {
				return true
			}
		}
	}
	return false
}
