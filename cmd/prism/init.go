// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/internal/issue"
	"github.com/prism-cli/prism/pkg/manifest"
)

func newInitCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a new package skeleton",
		Long: `Create a new package directory with a starter manifest, a sample
command and a configuration snippet.

Examples:
  prism init my-package
  prism init my-package --dir ./packages`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&parent, "dir", "d", ".", "directory to create the package in")

	cmd.RunE = app.runE(flags, func(_ *cobra.Command, args []string) error {
		name := manifest.PackageName(args[0])
		root, err := manifest.Create(parent, name)
		if err != nil {
			ctx := issue.NewErrorContext().
				WithOperation("create package").
				WithResource(string(name)).
				Wrap(err)
			if errors.Is(err, manifest.ErrInvalidPackageName) {
				ctx = ctx.WithSuggestion("Package names use lowercase letters, digits, '-' and '_'")
			}
			return ctx.Build()
		}

		fmt.Fprintf(app.stdout, "%s Created %s\n", successIcon, root)
		fmt.Fprintln(app.stdout)
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("Next steps:"))
		fmt.Fprintln(app.stdout, "  1. Edit prism-package.yaml and add your files")
		fmt.Fprintf(app.stdout, "  2. Run 'prism validate %s'\n", root)
		fmt.Fprintf(app.stdout, "  3. Run 'prism install %s' in a project\n", root)
		return nil
	})
	return cmd
}
