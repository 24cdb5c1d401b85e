// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "load package"}, "failed to load package"},
		{"with resource", &ActionableError{Operation: "load package", Resource: "./demo"}, "failed to load package: ./demo"},
		{"with cause", &ActionableError{Operation: "parse manifest", Cause: errors.New("bad indent")}, "failed to parse manifest: bad indent"},
		{
			"full",
			&ActionableError{Operation: "install package", Resource: "demo@1.0.0", Cause: errors.New("disk full")},
			"failed to install package: demo@1.0.0: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("already installed")
	err := NewErrorContext().
		WithOperation("install package").
		Wrap(fmt.Errorf("demo: %w", sentinel)).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
	if (&ActionableError{Operation: "x"}).Unwrap() != nil {
		t.Error("Unwrap() without cause should be nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := &ActionableError{Operation: "read archive", Cause: errors.New("unexpected EOF")}
	err := &ActionableError{
		Operation:   "unpack",
		Resource:    "demo.tar.gz",
		Suggestions: []string{"Rebuild the archive with 'prism package'", "Check the download"},
		Cause:       inner,
	}

	quiet := err.Format(false)
	for _, want := range []string{"failed to unpack: demo.tar.gz", "• Rebuild the archive with 'prism package'", "• Check the download"} {
		if !strings.Contains(quiet, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, quiet)
		}
	}
	if strings.Contains(quiet, "Error chain:") {
		t.Error("Format(false) should not include the error chain")
	}

	loud := err.Format(true)
	for _, want := range []string{"Error chain:", "1. failed to read archive: unexpected EOF", "2. unexpected EOF"} {
		if !strings.Contains(loud, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, loud)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("demo").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want untyped nil", err)
	}

	ctx := NewErrorContext().
		WithOperation("install package").
		WithSuggestion("first").
		WithIssue(AlreadyInstalledId)
	first := ctx.Build()
	ctx.WithSuggestion("second")
	if len(first.Suggestions) != 1 {
		t.Errorf("built error shares suggestions with builder: %v", first.Suggestions)
	}
	if !first.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}
	if entry := first.Issue(); entry == nil || entry.Id() != AlreadyInstalledId {
		t.Errorf("Issue() = %v, want catalog entry %d", entry, AlreadyInstalledId)
	}
	if (&ActionableError{Operation: "x"}).Issue() != nil {
		t.Error("Issue() with zero id should be nil")
	}
}
