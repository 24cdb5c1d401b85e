// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/internal/config"
)

func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage prism configuration",
		Long: `Manage prism configuration.

Configuration is stored in CUE format at:
  - Linux: ~/.config/prism/config.cue
  - macOS: ~/Library/Application Support/prism/config.cue
  - Windows: %APPDATA%\prism\config.cue

Any field can be overridden with a PRISM_* environment variable,
for example PRISM_LOG_LEVEL=debug.`,
	}

	configCmd.AddCommand(
		newConfigShowCommand(app, flags),
		newConfigInitCommand(app, flags),
		newConfigPathCommand(app, flags),
	)
	return configCmd
}

func newConfigShowCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: app.runE(flags, func(_ *cobra.Command, _ []string) error {
			fmt.Fprintln(app.stdout, TitleStyle.Render("Effective configuration"))
			fmt.Fprintln(app.stdout)
			fmt.Fprint(app.stdout, config.GenerateCUE(flags.config()))
			return nil
		}),
	}
}

func newConfigInitCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "directory to write config.cue into (default is the config directory)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")

	cmd.RunE = app.runE(flags, func(_ *cobra.Command, _ []string) error {
		path, err := config.CreateDefaultConfig(dir, force)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.stdout, "%s Configuration written to %s\n", successIcon, path)
		return nil
	})
	return cmd
}

func newConfigPathCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show where configuration is read from",
		Args:  cobra.NoArgs,
		RunE: app.runE(flags, func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			file, err := config.FilePath()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", dir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", file)

			_, loaded, err := config.LoadWithPath(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.configPath})
			switch {
			case err != nil:
				fmt.Fprintf(app.stdout, "Active: %s\n", WarningStyle.Render("invalid ("+err.Error()+")"))
			case loaded == "":
				fmt.Fprintln(app.stdout, "Active: built-in defaults")
			default:
				fmt.Fprintf(app.stdout, "Active: %s\n", loaded)
			}
			return nil
		}),
	}
}
