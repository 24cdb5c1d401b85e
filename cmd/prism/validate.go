// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/internal/issue"
	"github.com/prism-cli/prism/pkg/archive"
	"github.com/prism-cli/prism/pkg/manifest"
)

func newValidateCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check a package manifest",
		Long: `Check a package manifest and report every problem found.

Errors make the manifest unusable. Warnings (a destination without {name},
a variant that selects no files) are reported but only fail validation
with --strict or 'strict: true' in the configuration.

Examples:
  prism validate
  prism validate ./my-package --strict`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	cmd.RunE = app.runE(flags, func(cmd *cobra.Command, args []string) error {
		dir, err := packageDir(args)
		if err != nil {
			return err
		}
		return runValidate(app.stdout, dir, strict || flags.config().Strict)
	})
	return cmd
}

// runValidate prints every issue for the package at dir. It fails when an
// error is found, or a warning under strict.
func runValidate(w io.Writer, dir string, strict bool) error {
	m, err := manifest.LoadUnvalidated(dir)
	if err != nil {
		var ve *manifest.ValidationError
		if errors.As(err, &ve) {
			printIssues(w, ve.Issues)
		}
		id := issue.ManifestParseErrorId
		if errors.Is(err, manifest.ErrManifestNotFound) {
			id = issue.ManifestNotFoundId
		}
		return &ExitError{Code: ExitInvalid, Err: issue.NewErrorContext().
			WithOperation("parse manifest").
			WithResource(dir).
			WithIssue(id).
			Wrap(err).
			Build()}
	}

	issues := manifest.Check(m)
	if _, coverage, inspectErr := archive.Inspect(dir, m); inspectErr == nil {
		issues = append(issues, coverage...)
	} else if errors.Is(inspectErr, archive.ErrNoFiles) {
		issues = append(issues, manifest.ValidationIssue{Field: "structure", Message: "no files match any structure item", Severity: manifest.SeverityWarning})
	}

	printIssues(w, issues)

	var errs, warns int
	for _, i := range issues {
		if i.IsError() {
			errs++
		} else {
			warns++
		}
	}

	id := CmdStyle.Render(m.ID())
	switch {
	case errs > 0 || (strict && warns > 0):
		fmt.Fprintf(w, "%s %s is invalid: %d error(s), %d warning(s)\n", errorIcon, id, errs, warns)
		return &ExitError{Code: ExitInvalid, Err: issue.NewErrorContext().
			WithOperation("validate manifest").
			WithResource(m.FilePath).
			WithIssue(issue.ManifestInvalidId).
			Wrap(fmt.Errorf("%w: %d error(s), %d warning(s)", manifest.ErrInvalidManifest, errs, warns)).
			Build()}
	case warns > 0:
		fmt.Fprintf(w, "%s %s is valid with %d warning(s)\n", successIcon, id, warns)
	default:
		fmt.Fprintf(w, "%s %s is valid\n", successIcon, id)
	}
	return nil
}

func printIssues(w io.Writer, issues []manifest.ValidationIssue) {
	for _, i := range issues {
		icon := warningIcon
		if i.IsError() {
			icon = errorIcon
		}
		fmt.Fprintf(w, "%s %-7s %s\n", icon, i.Severity, i.String())
	}
}
