// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/prism-cli/prism/internal/issue"
	"github.com/prism-cli/prism/pkg/manifest"
)

// packageDir returns the package root named by args, or ".".
func packageDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	return filepath.Abs(dir)
}

// loadPackage decodes and validates the manifest at dir. Decode failures and
// rule violations are reported under different catalog entries.
func loadPackage(dir string) (*manifest.Manifest, error) {
	m, err := manifest.LoadUnvalidated(dir)
	if err != nil {
		if errors.Is(err, manifest.ErrManifestNotFound) {
			return nil, issue.NewErrorContext().
				WithOperation("load package").
				WithResource(dir).
				WithSuggestion("Run 'prism init <name>' to create a package").
				WithIssue(issue.ManifestNotFoundId).
				Wrap(err).
				Build()
		}
		return nil, issue.NewErrorContext().
			WithOperation("parse manifest").
			WithResource(dir).
			WithIssue(issue.ManifestParseErrorId).
			Wrap(err).
			Build()
	}

	if err := manifest.Validate(m); err != nil {
		id := issue.ManifestInvalidId
		var ve *manifest.ValidationError
		if errors.As(err, &ve) && hasHookIssue(ve.Issues) {
			id = issue.UnsafeHookId
		}
		return nil, issue.NewErrorContext().
			WithOperation("validate manifest").
			WithResource(m.FilePath).
			WithSuggestion("Run 'prism validate' to list every problem").
			WithIssue(id).
			Wrap(err).
			Build()
	}
	return m, nil
}

func hasHookIssue(issues []manifest.ValidationIssue) bool {
	for _, i := range issues {
		if strings.HasPrefix(i.Field, "hooks.") {
			return true
		}
	}
	return false
}
