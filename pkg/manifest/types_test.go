// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"testing"
)

func TestPackageName_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value PackageName
		want  bool
	}{
		{"my-package", true},
		{"pkg_2", true},
		{"0day", true},
		{"", false},
		{"My-Package", false},
		{"has space", false},
		{"dotted.name", false},
	}

	for _, tt := range tests {
		ok, errs := tt.value.IsValid()
		if ok != tt.want {
			t.Errorf("PackageName(%q).IsValid() = %v, want %v", tt.value, ok, tt.want)
		}
		if !ok && (len(errs) != 1 || !errors.Is(errs[0], ErrInvalidPackageName)) {
			t.Errorf("PackageName(%q).IsValid() errors = %v", tt.value, errs)
		}
	}
}

func TestSemVer_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value SemVer
		want  bool
	}{
		{"1.0.0", true},
		{"1.0.0-beta.1", true},
		{"1.0.0+build.1", true},
		{"1.0", false},
		{"v1.0.0", false},
		{"", false},
	}

	for _, tt := range tests {
		ok, errs := tt.value.IsValid()
		if ok != tt.want {
			t.Errorf("SemVer(%q).IsValid() = %v, want %v", tt.value, ok, tt.want)
		}
		if !ok && !errors.Is(errs[0], ErrInvalidSemVer) {
			t.Errorf("SemVer(%q) error should wrap ErrInvalidSemVer", tt.value)
		}
	}
}

func TestSemVerRange_IsValid(t *testing.T) {
	t.Parallel()

	for _, r := range []SemVerRange{"", "*", "^1.0.0", ">=1.0.0 <2.0.0", "1.x || 2.x"} {
		if ok, errs := r.IsValid(); !ok {
			t.Errorf("SemVerRange(%q).IsValid() = false, %v", r, errs)
		}
	}
	ok, errs := SemVerRange("latest").IsValid()
	if ok || !errors.Is(errs[0], ErrInvalidSemVerRange) {
		t.Errorf("SemVerRange(latest).IsValid() = %v, %v", ok, errs)
	}
}

func TestEnumerations(t *testing.T) {
	t.Parallel()

	for _, st := range StructureTypes() {
		if ok, _ := st.IsValid(); !ok {
			t.Errorf("StructureType %q should be valid", st)
		}
	}
	if ok, errs := StructureType("widgets").IsValid(); ok || !errors.Is(errs[0], ErrInvalidStructureType) {
		t.Errorf("StructureType(widgets).IsValid() = %v, %v", ok, errs)
	}

	for _, ev := range HookEvents() {
		if ok, _ := ev.IsValid(); !ok {
			t.Errorf("HookEvent %q should be valid", ev)
		}
	}
	if ok, errs := HookEvent("onBoot").IsValid(); ok || !errors.Is(errs[0], ErrInvalidHookEvent) {
		t.Errorf("HookEvent(onBoot).IsValid() = %v, %v", ok, errs)
	}

	for _, tt := range []struct {
		value VariantName
		want  bool
	}{{"minimal", true}, {"full-2", true}, {"default", true}, {"Full", false}, {"2x", false}, {"a_b", false}} {
		if ok, _ := tt.value.IsValid(); ok != tt.want {
			t.Errorf("VariantName(%q).IsValid() = %v, want %v", tt.value, ok, tt.want)
		}
	}
}
