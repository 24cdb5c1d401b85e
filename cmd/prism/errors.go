// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/internal/deps"
	"github.com/prism-cli/prism/internal/hooks"
	"github.com/prism-cli/prism/internal/issue"
	"github.com/prism-cli/prism/pkg/archive"
	"github.com/prism-cli/prism/pkg/installer"
	"github.com/prism-cli/prism/pkg/manifest"
)

// issueFor maps an error to its catalog entry, or 0 when none applies.
// An Id recorded on an ActionableError wins over sentinel matching.
func issueFor(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.IssueID != 0 {
		return ae.IssueID
	}

	switch {
	case errors.Is(err, manifest.ErrManifestNotFound):
		return issue.ManifestNotFoundId
	case errors.Is(err, manifest.ErrUnsafeHook):
		return issue.UnsafeHookId
	case errors.Is(err, manifest.ErrInvalidManifest):
		return issue.ManifestInvalidId
	case errors.Is(err, hooks.ErrHookFailed):
		return issue.HookFailedId
	case errors.Is(err, installer.ErrAlreadyInstalled):
		return issue.AlreadyInstalledId
	case errors.Is(err, archive.ErrNoFiles):
		return issue.NoFilesToPackageId
	case errors.Is(err, archive.ErrUnsafePath), errors.Is(err, archive.ErrTooLarge), errors.Is(err, archive.ErrEmptyArchive):
		return issue.ArchiveInvalidId
	case errors.Is(err, deps.ErrNotSatisfied):
		return issue.DependenciesNotSatisfiedId
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId
	}
	return 0
}

// renderIssue writes the catalog entry for err in verbose mode, or a hint
// pointing at --verbose otherwise.
func renderIssue(w io.Writer, err error, verbose bool, style string) {
	id := issueFor(err)
	if id == 0 {
		return
	}
	if !verbose {
		fmt.Fprintln(w, SubtitleStyle.Render("Run with --verbose for help on this error."))
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(style)
	if renderErr != nil {
		return
	}
	fmt.Fprint(w, rendered)
}

// runE adapts a handler so its failures are followed by catalog help.
func (app *App) runE(flags *rootFlagValues, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			renderIssue(app.stderr, err, flags.verbose, glamourStyle(flags.config().UI.ColorScheme.String()))
		}
		return err
	}
}

// glamourStyle maps the configured color scheme to a glamour standard style.
func glamourStyle(scheme string) string {
	switch scheme {
	case "dark", "light":
		return scheme
	default:
		return "auto"
	}
}
