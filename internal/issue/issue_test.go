// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		ManifestNotFoundId,
		ManifestParseErrorId,
		ManifestInvalidId,
		VariantNotFoundId,
		SourceNotFoundId,
		AlreadyInstalledId,
		NoFilesToPackageId,
		ArchiveInvalidId,
		UnsafeHookId,
		HookFailedId,
		ConfigLoadFailedId,
		PermissionDeniedId,
		DependenciesNotSatisfiedId,
		CommandNotFoundId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ManifestNotFoundId != 1 {
		t.Errorf("ManifestNotFoundId = %d, want 1", ManifestNotFoundId)
	}
	if len(Values()) != len(ids) {
		t.Errorf("Values() returned %d issues, want %d", len(Values()), len(ids))
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ManifestNotFoundId, false, "No package manifest found"},
		{ManifestParseErrorId, false, "Failed to parse"},
		{ManifestInvalidId, false, "manifest is invalid"},
		{VariantNotFoundId, false, "Variant not found"},
		{SourceNotFoundId, false, "source not found"},
		{AlreadyInstalledId, false, "already installed"},
		{NoFilesToPackageId, false, "No files to package"},
		{ArchiveInvalidId, false, "Invalid package archive"},
		{UnsafeHookId, false, "Unsafe lifecycle hook"},
		{HookFailedId, false, "hook failed"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{PermissionDeniedId, false, "Permission denied"},
		{DependenciesNotSatisfiedId, false, "Dependencies not satisfied"},
		{CommandNotFoundId, false, "Command not found"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Get(%d).Id() = %d", tt.id, issue.Id())
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain '%s'", tt.id, tt.contains)
			}
		})
	}
}

func TestValues_Ordered(t *testing.T) {
	values := Values()
	for i, issue := range values {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
	}

	// Values returns a copy.
	values[0] = nil
	if Values()[0] == nil {
		t.Error("Values() should return a clone")
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	testIssue := &Issue{
		id:       ManifestNotFoundId,
		mdMsg:    "# Test",
		docLinks: []HttpLink{"https://example.com/docs"},
		extLinks: []HttpLink{"https://example.com/ext"},
	}

	rendered, err := testIssue.Render("dark")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	for _, want := range []string{"# Test", "## See also", "<https://example.com/docs>", "<https://example.com/ext>"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() output should contain %q, got:\n%s", want, rendered)
		}
	}

	links := testIssue.DocLinks()
	links[0] = "modified"
	if testIssue.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	rendered, err := Get(ManifestNotFoundId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "prism init") {
		t.Error("Render() output should contain 'prism init'")
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() should not add a links section when there are none")
	}
}
