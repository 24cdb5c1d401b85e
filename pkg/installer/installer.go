// SPDX-License-Identifier: MPL-2.0

// Package installer copies a package's files into a project and removes them
// again.
//
// Files are selected per structure item: the item's pattern and excludes pick
// files below its source, then the resolved variant filters them by their
// package-root relative path. claude_config items are not copied; their
// content is merged into the project's aggregated configuration document
// between "# Package: <name>" and "# End Package: <name>" markers.
//
// Installation is not transactional. An I/O failure stops the operation and
// leaves the files already written in place.
package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/prism-cli/prism/internal/logging"
	"github.com/prism-cli/prism/pkg/glob"
	"github.com/prism-cli/prism/pkg/manifest"
)

type (
	// Installer installs packages into one project tree.
	Installer struct {
		root          string
		aggregatePath string
		logger        *log.Logger
	}

	// Option configures an Installer.
	Option func(*Installer)

	// Report describes what Install did.
	Report struct {
		// Variant is the variant actually applied, after fallback.
		Variant manifest.VariantName
		// Files lists the project-relative, slash-separated paths written.
		Files []string
		// Merged is true when a block was merged into the aggregated document.
		Merged   bool
		Warnings []MissingSourceWarning
	}

	// selection is the set of files an entry contributes after filtering.
	selection struct {
		dir     string
		files   []string
		missing bool
	}
)

// WithLogger sets the logger used for warnings.
func WithLogger(logger *log.Logger) Option {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithAggregatePath sets the aggregated document location, relative to the
// project root. Defaults to DefaultAggregatePath.
func WithAggregatePath(rel string) Option {
	return func(i *Installer) {
		if rel != "" {
			i.aggregatePath = rel
		}
	}
}

// New returns an Installer for the project rooted at projectRoot.
func New(projectRoot string, opts ...Option) *Installer {
	i := &Installer{
		root:          filepath.Clean(projectRoot),
		aggregatePath: DefaultAggregatePath,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Root returns the project root.
func (i *Installer) Root() string { return i.root }

// AggregatePath returns the absolute path of the aggregated document.
func (i *Installer) AggregatePath() string {
	return filepath.Join(i.root, filepath.FromSlash(i.aggregatePath))
}

// Install copies the files of the package at sourceDir selected by the
// variant named variant. An unknown variant falls back to the manifest's
// first declared variant.
func (i *Installer) Install(sourceDir string, m *manifest.Manifest, variant string) (*Report, error) {
	v := manifest.ResolveVariant(m, variant)
	if variant != "" && string(v.Name) != variant {
		i.logger.Warn("variant not found, using fallback", "package", m.Name, "requested", variant, "using", v.Name)
	}
	report := &Report{Variant: v.Name}

	var blocks []string
	for _, entry := range m.Entries() {
		sel, err := selectFiles(sourceDir, entry, v)
		if err != nil {
			return report, err
		}
		if sel.missing {
			w := MissingSourceWarning{Type: entry.Type, Source: entry.Item.Source, Path: sel.dir}
			i.logger.Warn("structure source not found, skipping", "package", m.Name, "type", entry.Type, "source", entry.Item.Source)
			report.Warnings = append(report.Warnings, w)
			continue
		}

		if entry.Type == manifest.StructureClaudeConfig {
			for _, f := range sel.files {
				src := filepath.Join(sel.dir, filepath.FromSlash(f))
				content, err := os.ReadFile(src)
				if err != nil {
					return report, &IOError{Op: "read", Path: src, Err: err}
				}
				blocks = append(blocks, strings.Trim(string(content), "\n"))
			}
			continue
		}

		destDir, err := i.resolveDest(m, entry.Item.Dest)
		if err != nil {
			return report, err
		}
		for _, f := range sel.files {
			dst := filepath.Join(destDir, filepath.FromSlash(f))
			if err := copyFile(filepath.Join(sel.dir, filepath.FromSlash(f)), dst); err != nil {
				return report, err
			}
			rel, _ := filepath.Rel(i.root, dst)
			report.Files = append(report.Files, filepath.ToSlash(rel))
		}
	}

	if len(blocks) > 0 {
		if err := mergeAggregate(i.AggregatePath(), string(m.Name), strings.Join(blocks, "\n\n")); err != nil {
			return report, err
		}
		report.Merged = true
	}
	return report, nil
}

// Plan returns the files Install would write for variant without touching
// the project, as project-relative slash paths.
func (i *Installer) Plan(sourceDir string, m *manifest.Manifest, variant string) ([]string, error) {
	v := manifest.ResolveVariant(m, variant)
	var planned []string
	for _, entry := range m.Entries() {
		sel, err := selectFiles(sourceDir, entry, v)
		if err != nil {
			return nil, err
		}
		if sel.missing || len(sel.files) == 0 {
			continue
		}
		if entry.Type == manifest.StructureClaudeConfig {
			planned = append(planned, filepath.ToSlash(i.aggregatePath))
			continue
		}
		dest := path.Clean(m.ExpandDest(strings.ReplaceAll(entry.Item.Dest, "\\", "/")))
		for _, f := range sel.files {
			planned = append(planned, path.Join(dest, f))
		}
	}
	return planned, nil
}

// selectFiles lists the files an entry contributes under variant v, relative
// to sel.dir. A file source contributes itself.
func selectFiles(sourceDir string, entry manifest.Entry, v manifest.Variant) (selection, error) {
	source := path.Clean(strings.ReplaceAll(entry.Item.Source, "\\", "/"))
	srcPath := filepath.Join(sourceDir, filepath.FromSlash(source))
	sel := selection{dir: srcPath}

	info, err := os.Stat(srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		sel.missing = true
		return sel, nil
	}
	if err != nil {
		return sel, &IOError{Op: "stat", Path: srcPath, Err: err}
	}

	var candidates []string
	prefix := source
	if info.IsDir() {
		all, err := glob.Walk(srcPath)
		if err != nil {
			return sel, &IOError{Op: "list", Path: srcPath, Err: err}
		}
		candidates = glob.Select(all, entry.Item.Pattern, entry.Item.Exclude)
	} else {
		sel.dir = filepath.Dir(srcPath)
		prefix = path.Dir(source)
		candidates = glob.Select([]string{path.Base(source)}, entry.Item.Pattern, entry.Item.Exclude)
	}

	sel.files = glob.FilterByVariant(candidates, v, prefix)
	return sel, nil
}

// resolveDest expands a destination template and anchors it in the project.
func (i *Installer) resolveDest(m *manifest.Manifest, tmpl string) (string, error) {
	dest := m.ExpandDest(tmpl)
	target := filepath.Join(i.root, filepath.FromSlash(strings.ReplaceAll(dest, "\\", "/")))
	if !within(i.root, target) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, dest)
	}
	return target, nil
}

// Uninstall removes every destination subtree of m and excises its block from
// the aggregated document. It returns the number of destinations removed,
// counting an excised block as one.
//
// A destination is skipped with a warning when it resolves to the project
// root or outside it, or when it contains the aggregated document. A
// destination whose template lacks {name} is also skipped when it contains
// another destination of the same package.
func (i *Installer) Uninstall(m *manifest.Manifest) (int, error) {
	type candidate struct {
		dest   string
		target string
	}

	var (
		candidates []candidate
		targets    []string
	)
	hasConfig := false
	for _, entry := range m.Entries() {
		if entry.Type == manifest.StructureClaudeConfig {
			hasConfig = true
			continue
		}
		target, err := i.resolveDest(m, entry.Item.Dest)
		if err != nil || target == i.root || within(target, i.AggregatePath()) {
			i.logger.Warn("refusing to remove destination", "package", m.Name, "dest", entry.Item.Dest)
			continue
		}
		candidates = append(candidates, candidate{dest: entry.Item.Dest, target: target})
		targets = append(targets, target)
	}

	removed := 0
	if hasConfig {
		ok, err := exciseAggregate(i.AggregatePath(), string(m.Name))
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}

	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c.target] {
			continue
		}
		if !strings.Contains(c.dest, "{name}") && containsOther(c.target, targets) {
			i.logger.Warn("destination holds other destinations, skipping", "package", m.Name, "dest", c.dest)
			continue
		}
		seen[c.target] = true

		if _, err := os.Lstat(c.target); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return removed, &IOError{Op: "stat", Path: c.target, Err: err}
		}
		if err := os.RemoveAll(c.target); err != nil {
			return removed, &IOError{Op: "remove", Path: c.target, Err: err}
		}
		removed++
	}
	return removed, nil
}

// containsOther reports whether target is a strict ancestor of any of others.
func containsOther(target string, others []string) bool {
	for _, other := range others {
		if other != target && within(target, other) {
			return true
		}
	}
	return false
}

// within reports whether target is root or lies below it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
