// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"strings"
)

const (
	// FileName is the manifest's well-known location within a package root.
	FileName = "prism-package.yaml"
	// AltFileName is accepted when FileName is absent.
	AltFileName = "prism-package.yml"

	// DefaultPattern selects every file below a structure item's source.
	DefaultPattern = "**/*"
	// DefaultVariantName names the synthetic variant inserted when none is declared.
	DefaultVariantName VariantName = "default"
	// DefaultVariantDescription describes the synthetic default variant.
	DefaultVariantDescription = "Default installation"
)

// DefaultIgnore is the archive ignore list applied when a manifest declares none.
var DefaultIgnore = []string{"node_modules", ".git", ".DS_Store"}

type (
	// Manifest is the normalized package descriptor.
	Manifest struct {
		Name        PackageName
		Version     SemVer
		Description string
		Author      string
		License     string
		Repository  string
		Homepage    string
		Keywords    []string

		// PlatformCompat is informational; nil when undeclared.
		PlatformCompat *PlatformCompat

		// Structure lists sections in declared order.
		Structure []StructureSection

		// Variants lists variants in declared order. Never empty after Normalize.
		Variants []Variant

		Dependencies Dependencies
		Hooks        map[HookEvent]string
		Ignore       []string

		// FilePath is where the manifest was read from. Not part of the document.
		FilePath string
	}

	// PlatformCompat bounds the host tool versions a package was written for.
	PlatformCompat struct {
		MinVersion SemVer
		MaxVersion SemVer
	}

	// StructureSection groups the items declared under one structure type.
	StructureSection struct {
		Type  StructureType
		Items []StructureItem
	}

	// StructureItem is one source-to-destination copy rule.
	StructureItem struct {
		// Source is relative to the package root.
		Source string
		// Dest is a destination template relative to the project root; it may
		// contain {name}, {version} and {author}.
		Dest    string
		Pattern string
		Exclude []string
	}

	// Variant is a named include/exclude policy over package-root relative paths.
	Variant struct {
		Name        VariantName
		Description string
		Include     []string
		Exclude     []string
	}

	// Dependencies declares what a package expects to find on the host.
	Dependencies struct {
		System []SystemDependency
		// Prism maps package names to version ranges.
		Prism map[PackageName]SemVerRange
	}

	// SystemDependency is an executable expected on PATH.
	SystemDependency struct {
		Name string
		// Required defaults to true; nil before normalization means unset.
		Required *bool
		Version  SemVerRange
		Install  string
	}

	// Entry is a structure item together with its section type and position.
	Entry struct {
		Type  StructureType
		Index int
		Item  StructureItem
	}
)

// IncludePatterns implements glob.Selector.
func (v Variant) IncludePatterns() []string { return v.Include }

// ExcludePatterns implements glob.Selector.
func (v Variant) ExcludePatterns() []string { return v.Exclude }

// IsRequired reports whether the dependency must be present. Unset means required.
func (d SystemDependency) IsRequired() bool {
	return d.Required == nil || *d.Required
}

// Entries flattens the structure into items in declared order.
func (m *Manifest) Entries() []Entry {
	var entries []Entry
	for _, section := range m.Structure {
		for i, item := range section.Items {
			entries = append(entries, Entry{Type: section.Type, Index: i, Item: item})
		}
	}
	return entries
}

// Section returns the items declared for t, or nil.
func (m *Manifest) Section(t StructureType) []StructureItem {
	for _, section := range m.Structure {
		if section.Type == t {
			return section.Items
		}
	}
	return nil
}

// VariantNames returns variant names in declared order.
func (m *Manifest) VariantNames() []string {
	names := make([]string, len(m.Variants))
	for i, v := range m.Variants {
		names[i] = string(v.Name)
	}
	return names
}

// ExpandDest substitutes {name}, {version} and {author} in tmpl. Any other
// brace expression is left as literal text.
func (m *Manifest) ExpandDest(tmpl string) string {
	return strings.NewReplacer(
		"{name}", string(m.Name),
		"{version}", string(m.Version),
		"{author}", m.Author,
	).Replace(tmpl)
}

// ID returns "name@version".
func (m *Manifest) ID() string {
	return string(m.Name) + "@" + string(m.Version)
}
