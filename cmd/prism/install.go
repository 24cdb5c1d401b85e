// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/internal/deps"
	"github.com/prism-cli/prism/internal/hooks"
	"github.com/prism-cli/prism/internal/issue"
	"github.com/prism-cli/prism/pkg/installer"
	"github.com/prism-cli/prism/pkg/manifest"
)

type installFlagValues struct {
	variant          string
	project          string
	installedVersion string
	installed        map[string]string
	force            bool
	noHooks          bool
	dryRun           bool
}

func newInstallCommand(app *App, flags *rootFlagValues) *cobra.Command {
	opts := &installFlagValues{}

	cmd := &cobra.Command{
		Use:   "install [dir]",
		Short: "Install a package into a project",
		Long: `Install the package rooted at dir into the project.

Files are copied according to the manifest's structure and filtered by the
selected variant. claude_config files are merged into the project's
aggregated configuration document. An unknown variant falls back to the
first declared one.

Examples:
  prism install ./my-package
  prism install ./my-package --variant minimal --project ../app
  prism install ./my-package --dry-run`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVarP(&opts.variant, "variant", "V", "", "variant to install (default from config, else the first declared)")
	cmd.Flags().StringVarP(&opts.project, "project", "p", ".", "project root to install into")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "reinstall even if this version is already installed")
	cmd.Flags().BoolVar(&opts.noHooks, "no-hooks", false, "do not run lifecycle hooks")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "list the files that would be written and exit")
	cmd.Flags().StringVar(&opts.installedVersion, "installed-version", "", "version of this package already in the project")
	cmd.Flags().StringToStringVar(&opts.installed, "installed", nil, "installed prism packages (name=version), enables package dependency checks")

	cmd.RunE = app.runE(flags, func(cmd *cobra.Command, args []string) error {
		dir, err := packageDir(args)
		if err != nil {
			return err
		}
		return app.runInstall(cmd.Context(), flags, dir, opts)
	})
	return cmd
}

func newUninstallCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		project string
		noHooks bool
	)

	cmd := &cobra.Command{
		Use:   "uninstall [dir]",
		Short: "Remove a package from a project",
		Long: `Remove the files a package installed into the project.

Each destination directory is removed. The project root and any directory
holding the aggregated document are never removed. A destination without
{name} that contains another destination of the package is skipped. The package's block is excised from
the aggregated configuration document.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVarP(&project, "project", "p", ".", "project root to remove the package from")
	cmd.Flags().BoolVar(&noHooks, "no-hooks", false, "do not run lifecycle hooks")

	cmd.RunE = app.runE(flags, func(cmd *cobra.Command, args []string) error {
		dir, err := packageDir(args)
		if err != nil {
			return err
		}
		return app.runUninstall(cmd.Context(), flags, dir, project, noHooks)
	})
	return cmd
}

func (app *App) newInstaller(flags *rootFlagValues, project string) (*installer.Installer, error) {
	root, err := filepath.Abs(project)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	return installer.New(root,
		installer.WithLogger(app.logger(flags, "installer")),
		installer.WithAggregatePath(flags.config().AggregateFile.String()),
	), nil
}

func (app *App) newHookRunner(flags *rootFlagValues) *hooks.Runner {
	return hooks.NewRunner(
		hooks.WithOutput(app.stdout, app.stderr),
		hooks.WithLogger(app.logger(flags, "hooks")),
	)
}

func (app *App) runInstall(ctx context.Context, flags *rootFlagValues, dir string, opts *installFlagValues) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := loadPackage(dir)
	if err != nil {
		return err
	}
	cfg := flags.config()

	variant := opts.variant
	if variant == "" {
		variant = string(cfg.DefaultVariant)
	}
	if variant != "" {
		if _, ok := m.Variant(variant); !ok {
			msg := fmt.Sprintf("variant '%s' not found in %s, using '%s'", variant, m.Name, manifest.ResolveVariant(m, variant).Name)
			if hint := didYouMean(variant, m.VariantNames()); hint != "" {
				msg += "; " + hint
			}
			fmt.Fprintf(app.stderr, "%s %s\n", warningIcon, WarningStyle.Render(msg))
		}
	}

	if err := installer.CheckConflict(opts.installedVersion, m); err != nil {
		if errors.Is(err, installer.ErrAlreadyInstalled) && !opts.force {
			return issue.NewErrorContext().
				WithOperation("install package").
				WithResource(m.ID()).
				WithSuggestion("Use --force to reinstall over the existing files").
				WithIssue(issue.AlreadyInstalledId).
				Wrap(err).
				Build()
		}
		fmt.Fprintf(app.stderr, "%s %s\n", warningIcon, err)
	}

	warnings, err := deps.Check(m, opts.installed, app.LookPath)
	for _, w := range warnings {
		fmt.Fprintf(app.stderr, "%s optional dependency %s\n", warningIcon, w)
	}
	if err != nil {
		var nsErr *deps.NotSatisfiedError
		if errors.As(err, &nsErr) {
			fmt.Fprint(app.stderr, renderDependencyError(nsErr))
		}
		return err
	}

	inst, err := app.newInstaller(flags, opts.project)
	if err != nil {
		return err
	}

	if opts.dryRun {
		planned, err := inst.Plan(dir, m, variant)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.stdout, "%s %s would write %d file(s) into %s\n", infoIcon, CmdStyle.Render(m.ID()), len(planned), inst.Root())
		for _, p := range planned {
			fmt.Fprintf(app.stdout, "  %s\n", p)
		}
		return nil
	}

	runHooks := cfg.RunHooks && !opts.noHooks
	runner := app.newHookRunner(flags)
	if runHooks {
		if err := runner.Run(ctx, m, manifest.HookPreInstall, inst.Root()); err != nil {
			return err
		}
	}

	report, err := inst.Install(dir, m, variant)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("install package").
			WithResource(m.ID()).
			WithSuggestion("Files written before the failure were left in place").
			Wrap(err).
			Build()
	}

	fmt.Fprintf(app.stdout, "%s Installed %s (variant %s): %d file(s)\n",
		successIcon, CmdStyle.Render(m.ID()), report.Variant, len(report.Files))
	if report.Merged {
		fmt.Fprintf(app.stdout, "%s Merged configuration into %s\n", infoIcon, inst.AggregatePath())
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(app.stderr, "%s %s\n", warningIcon, w)
	}
	if flags.verbose {
		for _, f := range report.Files {
			fmt.Fprintf(app.stdout, "  %s\n", VerboseStyle.Render(f))
		}
	}

	if runHooks {
		if err := runner.Run(ctx, m, manifest.HookPostInstall, inst.Root()); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) runUninstall(ctx context.Context, flags *rootFlagValues, dir, project string, noHooks bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := loadPackage(dir)
	if err != nil {
		return err
	}
	inst, err := app.newInstaller(flags, project)
	if err != nil {
		return err
	}

	runHooks := flags.config().RunHooks && !noHooks
	runner := app.newHookRunner(flags)
	if runHooks {
		if err := runner.Run(ctx, m, manifest.HookPreUninstall, inst.Root()); err != nil {
			return err
		}
	}

	removed, err := inst.Uninstall(m)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("uninstall package").
			WithResource(m.ID()).
			Wrap(err).
			Build()
	}
	fmt.Fprintf(app.stdout, "%s Removed %s: %d destination(s)\n", successIcon, CmdStyle.Render(string(m.Name)), removed)

	if runHooks {
		if err := runner.Run(ctx, m, manifest.HookPostUninstall, inst.Root()); err != nil {
			return err
		}
	}
	return nil
}

// renderDependencyError renders unmet dependencies as a card grouped by kind.
func renderDependencyError(err *deps.NotSatisfiedError) string {
	var sb strings.Builder
	sb.WriteString(renderHeaderStyle.Render("✗ Dependencies not satisfied!"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Cannot install %s because some dependencies are missing.\n", CmdStyle.Render("'"+string(err.Package)+"'"))

	for _, kind := range []deps.Kind{deps.KindSystem, deps.KindPrism} {
		var lines []string
		for _, p := range err.Problems {
			if p.Kind == kind {
				lines = append(lines, "  • "+p.String())
			}
		}
		if len(lines) == 0 {
			continue
		}
		label := "Missing tools:"
		if kind == deps.KindPrism {
			label = "Missing packages:"
		}
		sb.WriteString("\n")
		sb.WriteString(renderLabelStyle.Render(label))
		sb.WriteString("\n")
		for _, l := range lines {
			sb.WriteString(renderValueStyle.Render(l))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
