// SPDX-License-Identifier: MPL-2.0

package manifest

// Variant returns the variant declared under name.
func (m *Manifest) Variant(name string) (Variant, bool) {
	for _, v := range m.Variants {
		if string(v.Name) == name {
			return v, true
		}
	}
	return Variant{}, false
}

// ResolveVariant returns the variant named name. An unknown name falls back to
// the first declared variant rather than failing; a manifest with no variants
// at all yields DefaultVariant.
func ResolveVariant(m *Manifest, name string) Variant {
	if v, ok := m.Variant(name); ok {
		return v
	}
	if len(m.Variants) > 0 {
		return m.Variants[0]
	}
	return DefaultVariant()
}
