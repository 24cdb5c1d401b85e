// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/internal/watch"
	"github.com/prism-cli/prism/pkg/manifest"
)

func newDevCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		variant string
		project string
	)

	cmd := &cobra.Command{
		Use:   "dev [dir]",
		Short: "Re-install a package whenever its sources change",
		Long: `Install a package into a project, then watch the package's sources and
re-install on every change until interrupted. Hooks are not run.

Examples:
  prism dev ./my-package --project ../app`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVarP(&variant, "variant", "V", "", "variant to install")
	cmd.Flags().StringVarP(&project, "project", "p", ".", "project root to install into")

	cmd.RunE = app.runE(flags, func(cmd *cobra.Command, args []string) error {
		dir, err := packageDir(args)
		if err != nil {
			return err
		}
		m, err := loadPackage(dir)
		if err != nil {
			return err
		}

		reinstall := func() error {
			// Reload so manifest edits take effect.
			current, err := loadPackage(dir)
			if err != nil {
				return err
			}
			return app.devInstall(flags, dir, current, project, variant)
		}

		fmt.Fprintf(app.stdout, "%s Dev mode: initial install of %s\n", infoIcon, CmdStyle.Render(m.ID()))
		if err := reinstall(); err != nil {
			fmt.Fprintf(app.stderr, "%s Initial install failed: %s\n", warningIcon, formatErrorForDisplay(err, flags.verbose))
		}

		cfg := watch.ForPackage(dir, m)
		cfg.Logger = app.logger(flags, "watch")
		cfg.OnChange = func(_ context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "%s Detected %d change(s), re-installing...\n", infoIcon, len(changed))
			if err := reinstall(); err != nil {
				fmt.Fprintf(app.stderr, "%s %s\n", warningIcon, formatErrorForDisplay(err, flags.verbose))
			}
			return nil
		}

		w, err := watch.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		fmt.Fprintf(app.stdout, "%s Watching %s (Ctrl+C to stop)\n", infoIcon, dir)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return w.Run(ctx)
	})
	return cmd
}

// devInstall installs m without hooks or conflict checks and prints a one-line summary.
func (app *App) devInstall(flags *rootFlagValues, dir string, m *manifest.Manifest, project, variant string) error {
	inst, err := app.newInstaller(flags, project)
	if err != nil {
		return err
	}
	if variant == "" {
		variant = string(flags.config().DefaultVariant)
	}
	report, err := inst.Install(dir, m, variant)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s Installed %s (variant %s): %d file(s)\n",
		successIcon, CmdStyle.Render(m.ID()), report.Variant, len(report.Files))
	return nil
}
