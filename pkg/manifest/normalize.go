// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"maps"
	"slices"
)

// Normalize returns a copy of m with every optional field set to its default:
// empty slices and maps instead of nil, "**/*" as the item pattern, required
// system dependencies, the default ignore list and, when no variant is
// declared, the synthetic default variant. m is not modified.
//
// Normalize is idempotent: Normalize(Normalize(m)) deep-equals Normalize(m).
func Normalize(m *Manifest) *Manifest {
	if m == nil {
		return nil
	}

	out := *m
	out.Keywords = cloneStrings(m.Keywords)

	if m.PlatformCompat != nil {
		compat := *m.PlatformCompat
		out.PlatformCompat = &compat
	}

	out.Structure = make([]StructureSection, 0, len(m.Structure))
	for _, section := range m.Structure {
		items := make([]StructureItem, 0, len(section.Items))
		for _, item := range section.Items {
			if item.Pattern == "" {
				item.Pattern = DefaultPattern
			}
			item.Exclude = cloneStrings(item.Exclude)
			items = append(items, item)
		}
		out.Structure = append(out.Structure, StructureSection{Type: section.Type, Items: items})
	}

	if len(m.Variants) == 0 {
		out.Variants = []Variant{DefaultVariant()}
	} else {
		out.Variants = make([]Variant, 0, len(m.Variants))
		for _, v := range m.Variants {
			v.Include = cloneStrings(v.Include)
			v.Exclude = cloneStrings(v.Exclude)
			out.Variants = append(out.Variants, v)
		}
	}

	out.Dependencies.System = make([]SystemDependency, 0, len(m.Dependencies.System))
	for _, dep := range m.Dependencies.System {
		required := dep.IsRequired()
		dep.Required = &required
		out.Dependencies.System = append(out.Dependencies.System, dep)
	}
	out.Dependencies.Prism = make(map[PackageName]SemVerRange, len(m.Dependencies.Prism))
	maps.Copy(out.Dependencies.Prism, m.Dependencies.Prism)

	out.Hooks = make(map[HookEvent]string, len(m.Hooks))
	maps.Copy(out.Hooks, m.Hooks)

	if m.Ignore == nil {
		out.Ignore = slices.Clone(DefaultIgnore)
	} else {
		out.Ignore = slices.Clone(m.Ignore)
	}

	return &out
}

// DefaultVariant returns the synthetic variant that installs everything.
func DefaultVariant() Variant {
	return Variant{
		Name:        DefaultVariantName,
		Description: DefaultVariantDescription,
		Include:     []string{DefaultPattern},
		Exclude:     []string{},
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
