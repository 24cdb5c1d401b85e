// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"reflect"
	"slices"
	"testing"
)

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := map[string]*Manifest{
		"zero value": {},
		"sparse": {
			Name:      "sparse",
			Structure: []StructureSection{{Type: StructureCommands, Items: []StructureItem{{Source: "c", Dest: "d/{name}"}}}},
			Dependencies: Dependencies{
				System: []SystemDependency{{Name: "git"}},
			},
		},
		"fully populated": {
			Name:           "full",
			Version:        "1.0.0",
			Keywords:       []string{"a"},
			PlatformCompat: &PlatformCompat{MinVersion: "1.0.0"},
			Variants:       []Variant{{Name: "x", Description: "x", Include: []string{"a/*"}}},
			Hooks:          map[HookEvent]string{HookPreInstall: "true"},
			Ignore:         []string{},
		},
	}

	for name, m := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			once := Normalize(m)
			twice := Normalize(once)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("Normalize is not idempotent:\n once: %+v\ntwice: %+v", once, twice)
			}
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	t.Parallel()

	in := &Manifest{
		Structure: []StructureSection{{Type: StructureRules, Items: []StructureItem{{Source: "r", Dest: "d"}}}},
		Dependencies: Dependencies{
			System: []SystemDependency{{Name: "git"}},
		},
	}
	out := Normalize(in)

	if out.Structure[0].Items[0].Pattern != DefaultPattern {
		t.Errorf("Pattern = %q, want %q", out.Structure[0].Items[0].Pattern, DefaultPattern)
	}
	if out.Structure[0].Items[0].Exclude == nil || out.Keywords == nil || out.Hooks == nil || out.Dependencies.Prism == nil {
		t.Error("optional collections should be non-nil after Normalize")
	}
	if !slices.Equal(out.Ignore, DefaultIgnore) {
		t.Errorf("Ignore = %v, want %v", out.Ignore, DefaultIgnore)
	}
	if dep := out.Dependencies.System[0]; dep.Required == nil || !*dep.Required {
		t.Errorf("Required = %v, want true", dep.Required)
	}
	if len(out.Variants) != 1 || out.Variants[0].Name != DefaultVariantName {
		t.Errorf("Variants = %+v", out.Variants)
	}
}

func TestNormalize_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := &Manifest{
		Structure: []StructureSection{{Type: StructureRules, Items: []StructureItem{{Source: "r", Dest: "d"}}}},
		Ignore:    []string{"tmp"},
	}
	out := Normalize(in)
	out.Ignore[0] = "changed"
	out.Structure[0].Items[0].Source = "changed"

	if in.Structure[0].Items[0].Pattern != "" {
		t.Error("input item was modified")
	}
	if in.Ignore[0] != "tmp" || in.Structure[0].Items[0].Source != "r" {
		t.Error("output shares storage with input")
	}
	if in.Variants != nil {
		t.Error("input variants were modified")
	}
}

func TestNormalize_Nil(t *testing.T) {
	t.Parallel()

	if Normalize(nil) != nil {
		t.Error("Normalize(nil) should be nil")
	}
}
