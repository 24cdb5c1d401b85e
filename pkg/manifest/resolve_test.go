// SPDX-License-Identifier: MPL-2.0

package manifest

import "testing"

func TestResolveVariant(t *testing.T) {
	t.Parallel()

	m := &Manifest{Variants: []Variant{
		{Name: "minimal", Description: "m", Include: []string{"commands/core/*"}},
		{Name: "full", Description: "f", Include: []string{"**/*"}},
	}}

	tests := []struct {
		name      string
		requested string
		want      VariantName
	}{
		{"exact first", "minimal", "minimal"},
		{"exact second", "full", "full"},
		{"unknown falls back to first declared", "nonexistent", "minimal"},
		{"empty falls back to first declared", "", "minimal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveVariant(m, tt.requested); got.Name != tt.want {
				t.Errorf("ResolveVariant(%q) = %q, want %q", tt.requested, got.Name, tt.want)
			}
		})
	}
}

func TestResolveVariant_NoVariants(t *testing.T) {
	t.Parallel()

	got := ResolveVariant(&Manifest{}, "anything")
	if got.Name != DefaultVariantName || got.Description != DefaultVariantDescription {
		t.Errorf("ResolveVariant() = %+v, want synthetic default", got)
	}
	if len(got.Include) != 1 || got.Include[0] != "**/*" || len(got.Exclude) != 0 {
		t.Errorf("synthetic default patterns = %v / %v", got.Include, got.Exclude)
	}
}

func TestManifest_Variant(t *testing.T) {
	t.Parallel()

	m := &Manifest{Variants: []Variant{{Name: "full"}}}
	if _, ok := m.Variant("full"); !ok {
		t.Error("Variant(full) should be found")
	}
	if _, ok := m.Variant("minimal"); ok {
		t.Error("Variant(minimal) should not be found")
	}
}

func TestExpandDest(t *testing.T) {
	t.Parallel()

	m := &Manifest{Name: "pkg", Version: "1.2.3", Author: "ann"}
	tests := []struct {
		tmpl string
		want string
	}{
		{".claude/commands/{name}", ".claude/commands/pkg"},
		{"out/{name}-{version}/{author}", "out/pkg-1.2.3/ann"},
		{"keep/{other}/{name}", "keep/{other}/pkg"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := m.ExpandDest(tt.tmpl); got != tt.want {
			t.Errorf("ExpandDest(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}
