// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"strings"
	"testing"
)

func validManifest() *Manifest {
	return Normalize(&Manifest{
		Name:        "my-package",
		Version:     "1.0.0",
		Description: "A package",
		Structure: []StructureSection{
			{Type: StructureCommands, Items: []StructureItem{{Source: "commands", Dest: ".claude/commands/{name}"}}},
		},
		Variants: []Variant{{Name: "minimal", Description: "Core", Include: []string{"commands/core/*"}}},
	})
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()

	m := validManifest()
	if err := Validate(m); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	// Validation is repeatable on the same manifest.
	if err := Validate(m); err != nil {
		t.Fatalf("second Validate() unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(m *Manifest)
		wantField string
	}{
		{"missing name", func(m *Manifest) { m.Name = "" }, "name"},
		{"bad name", func(m *Manifest) { m.Name = "My Package" }, "name"},
		{"missing version", func(m *Manifest) { m.Version = "" }, "version"},
		{"short version", func(m *Manifest) { m.Version = "1.0" }, "version"},
		{"missing description", func(m *Manifest) { m.Description = "  " }, "description"},
		{"empty structure", func(m *Manifest) { m.Structure = nil }, "structure"},
		{"unknown structure type", func(m *Manifest) { m.Structure[0].Type = "widgets" }, "structure.widgets"},
		{"duplicate structure type", func(m *Manifest) {
			m.Structure = append(m.Structure, m.Structure[0])
		}, "structure.commands"},
		{"missing source", func(m *Manifest) { m.Structure[0].Items[0].Source = "" }, "structure.commands[0].source"},
		{"missing dest", func(m *Manifest) { m.Structure[0].Items[0].Dest = "" }, "structure.commands[0].dest"},
		{"absolute dest", func(m *Manifest) { m.Structure[0].Items[0].Dest = "/etc/{name}" }, "structure.commands[0].dest"},
		{"escaping source", func(m *Manifest) { m.Structure[0].Items[0].Source = "../outside" }, "structure.commands[0].source"},
		{"variant without description", func(m *Manifest) { m.Variants[0].Description = "" }, "variants.minimal.description"},
		{"variant without include", func(m *Manifest) { m.Variants[0].Include = []string{} }, "variants.minimal.include"},
		{"bad variant name", func(m *Manifest) { m.Variants[0].Name = "Minimal" }, "variants.Minimal"},
		{"variant name starting with digit", func(m *Manifest) { m.Variants[0].Name = "1st" }, "variants.1st"},
		{"system dependency without name", func(m *Manifest) {
			m.Dependencies.System = []SystemDependency{{Version: ">=1.0.0"}}
		}, "dependencies.system[0].name"},
		{"bad system dependency range", func(m *Manifest) {
			m.Dependencies.System = []SystemDependency{{Name: "git", Version: "not-a-range"}}
		}, "dependencies.system[0].version"},
		{"bad prism dependency range", func(m *Manifest) {
			m.Dependencies.Prism = map[PackageName]SemVerRange{"base": ">>1"}
		}, "dependencies.prism.base"},
		{"bad prism dependency name", func(m *Manifest) {
			m.Dependencies.Prism = map[PackageName]SemVerRange{"Base": "^1.0.0"}
		}, "dependencies.prism.Base"},
		{"unknown hook event", func(m *Manifest) { m.Hooks = map[HookEvent]string{"onBoot": "true"} }, "hooks.onBoot"},
		{"destructive hook", func(m *Manifest) { m.Hooks = map[HookEvent]string{HookPostInstall: "rm -rf /"} }, "hooks.postInstall"},
		{"bad compat bound", func(m *Manifest) {
			m.PlatformCompat = &PlatformCompat{MinVersion: "1"}
		}, "platformCompat.minVersion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := validManifest()
			tt.mutate(m)

			err := Validate(m)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidManifest) {
				t.Errorf("error should wrap ErrInvalidManifest, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			found := false
			for _, issue := range ve.Issues {
				if issue.Field == tt.wantField {
					found = true
				}
				if !issue.IsError() {
					t.Errorf("ValidationError should only carry errors, got %v", issue)
				}
			}
			if !found {
				t.Errorf("no issue for field %q in %v", tt.wantField, ve.Issues)
			}
		})
	}
}

func TestCheck_Warnings(t *testing.T) {
	t.Parallel()

	m := validManifest()
	m.Structure[0].Items[0].Dest = ".claude/commands"
	m.Structure = append(m.Structure, StructureSection{
		Type:  StructureClaudeConfig,
		Items: []StructureItem{{Source: "my-package.md", Dest: ".claude/CLAUDE.md", Pattern: DefaultPattern}},
	})
	m.PlatformCompat = &PlatformCompat{MinVersion: "2.0.0", MaxVersion: "1.0.0"}

	if err := Validate(m); err != nil {
		t.Fatalf("warnings must not fail validation: %v", err)
	}

	warnings := map[string]bool{}
	for _, issue := range Check(m) {
		if issue.Severity == SeverityWarning {
			warnings[issue.Field] = true
		}
	}
	if !warnings["structure.commands[0].dest"] {
		t.Error("expected a warning for a dest without {name}")
	}
	if warnings["structure.claude_config[0].dest"] {
		t.Error("claude_config destinations should not warn about {name}")
	}
	if !warnings["platformCompat"] {
		t.Error("expected a warning for minVersion > maxVersion")
	}
}

func TestCheckVariantCoverage(t *testing.T) {
	t.Parallel()

	m := validManifest()
	m.Variants = append(m.Variants, Variant{Name: "docs", Description: "Docs", Include: []string{"docs/**"}})

	files := []string{"prism-package.yaml", "commands/core/basic.md", "commands/experimental/advanced.md"}
	issues := CheckVariantCoverage(m, files)
	if len(issues) != 1 || issues[0].Field != "variants.docs" || issues[0].Severity != SeverityWarning {
		t.Errorf("CheckVariantCoverage() = %v, want one warning for docs", issues)
	}
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	single := &ValidationError{FilePath: "p.yaml", Issues: []ValidationIssue{{Field: "name", Message: "name is required"}}}
	if got := single.Error(); got != "p.yaml: name: name is required" {
		t.Errorf("Error() = %q", got)
	}

	multi := &ValidationError{Issues: []ValidationIssue{{Field: "name", Message: "a"}, {Message: "b"}}}
	got := multi.Error()
	if !strings.HasPrefix(got, "invalid manifest: validation failed with 2 errors:") || !strings.Contains(got, "\n  - b") {
		t.Errorf("Error() = %q", got)
	}
}

func TestSeverity_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range []Severity{SeverityError, SeverityWarning} {
		if ok, _ := s.IsValid(); !ok {
			t.Errorf("%v should be valid", s)
		}
	}
	ok, errs := Severity(7).IsValid()
	if ok || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidSeverity) {
		t.Errorf("Severity(7).IsValid() = %v, %v", ok, errs)
	}
}
