// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/internal/config"
	"github.com/prism-cli/prism/internal/deps"
	"github.com/prism-cli/prism/internal/issue"
	"github.com/prism-cli/prism/internal/logging"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires CLI services and shared dependencies. All command handlers
	// receive an App and write through its writers.
	App struct {
		Config   config.Provider
		LookPath deps.LookPathFunc
		stdout   io.Writer
		stderr   io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   config.Provider
		LookPath deps.LookPathFunc
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// rootFlagValues holds the persistent flags and the configuration
	// loaded for the current invocation.
	rootFlagValues struct {
		configPath string
		verbose    bool
		cfg        *config.Config
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(d Dependencies) *App {
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.Config == nil {
		d.Config = config.NewProvider()
	}
	if d.LookPath == nil {
		d.LookPath = exec.LookPath
	}
	return &App{Config: d.Config, LookPath: d.LookPath, stdout: d.Stdout, stderr: d.Stderr}
}

// NewRootCommand builds the full command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "prism",
		Short: "Install, package and manage Claude Code packages",
		Long: TitleStyle.Render("prism") + SubtitleStyle.Render(" - a package manager for Claude Code assets") + `

A prism package is a directory with a prism-package.yaml manifest that maps
commands, scripts, rules and configuration snippets into a project.
Variants select which parts of a package are installed.

` + SubtitleStyle.Render("Examples:") + `
  prism init my-package                 Create a package skeleton
  prism validate ./my-package           Check a manifest
  prism install ./my-package -V minimal Install the 'minimal' variant
  prism package ./my-package            Build my-package-<version>.tar.gz
  prism uninstall ./my-package          Remove the package from the project`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			flags.cfg = app.loadConfig(cmd.Context(), flags)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/prism/config.cue)")

	rootCmd.AddCommand(
		newValidateCommand(app, flags),
		newInstallCommand(app, flags),
		newUninstallCommand(app, flags),
		newPackageCommand(app, flags),
		newUnpackCommand(app, flags),
		newInfoCommand(app, flags),
		newInitCommand(app, flags),
		newDevCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// loadConfig loads the configuration for this invocation. A broken config
// file is reported and defaults are used so that every command stays usable.
func (app *App) loadConfig(ctx context.Context, flags *rootFlagValues) *config.Config {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, flags.verbose))
		cfg = config.DefaultConfig()
	}
	if !flags.verbose {
		flags.verbose = cfg.UI.Verbose
	}
	return cfg
}

// config returns the loaded configuration, or defaults when the persistent
// pre-run did not happen (direct handler calls in tests).
func (f *rootFlagValues) config() *config.Config {
	if f.cfg == nil {
		return config.DefaultConfig()
	}
	return f.cfg
}

// logger returns a component logger writing to stderr. Verbose mode lowers
// the threshold to info.
func (app *App) logger(flags *rootFlagValues, prefix string) *log.Logger {
	level := flags.config().LogLevel.String()
	if flags.verbose && (level == "warn" || level == "error") {
		level = "info"
	}
	return logging.New(app.stderr, level, prefix)
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their own formatting; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
