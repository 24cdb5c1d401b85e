// SPDX-License-Identifier: MPL-2.0

// Package hooks runs manifest lifecycle hooks in the embedded mvdan/sh
// interpreter, so hook bodies behave the same on every host.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/prism-cli/prism/internal/logging"
	"github.com/prism-cli/prism/pkg/manifest"
)

// Environment variables exported to every hook.
const (
	EnvPackageName    = "PRISM_PACKAGE_NAME"
	EnvPackageVersion = "PRISM_PACKAGE_VERSION"
	EnvProjectRoot    = "PRISM_PROJECT_ROOT"
	EnvHook           = "PRISM_HOOK"
)

// ErrHookFailed is matched by every *HookError.
var ErrHookFailed = errors.New("hook failed")

type (
	// HookError reports a hook that could not run or exited non-zero.
	HookError struct {
		Package  manifest.PackageName
		Event    manifest.HookEvent
		ExitCode int
		Err      error
	}

	// Runner executes hook bodies.
	Runner struct {
		stdout io.Writer
		stderr io.Writer
		env    []string
		logger *log.Logger
	}

	// Option configures a Runner.
	Option func(*Runner)
)

// Error implements the error interface.
func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s hook of %s failed: %v", e.Event, e.Package, e.Err)
	}
	return fmt.Sprintf("%s hook of %s exited with status %d", e.Event, e.Package, e.ExitCode)
}

// Unwrap returns the underlying error, if any.
func (e *HookError) Unwrap() error { return e.Err }

// Is matches ErrHookFailed.
func (e *HookError) Is(target error) bool { return target == ErrHookFailed }

// WithOutput sets the writers hook output goes to. Defaults to os.Stdout and os.Stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout, r.stderr = stdout, stderr
	}
}

// WithEnv replaces the base environment. Defaults to os.Environ().
func WithEnv(env []string) Option {
	return func(r *Runner) { r.env = env }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a hook runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		stdout: os.Stdout,
		stderr: os.Stderr,
		env:    os.Environ(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes m's hook for event with projectRoot as the working directory.
// A package without that hook is a no-op. Bodies rejected by
// manifest.CheckHookSafety never run.
func (r *Runner) Run(ctx context.Context, m *manifest.Manifest, event manifest.HookEvent, projectRoot string) error {
	body := strings.TrimSpace(m.Hooks[event])
	if body == "" {
		return nil
	}

	if err := manifest.CheckHookSafety(body); err != nil {
		return &HookError{Package: m.Name, Event: event, ExitCode: -1, Err: err}
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(body), string(event))
	if err != nil {
		return &HookError{Package: m.Name, Event: event, ExitCode: -1, Err: fmt.Errorf("failed to parse hook: %w", err)}
	}

	env := append(append([]string(nil), r.env...),
		EnvPackageName+"="+string(m.Name),
		EnvPackageVersion+"="+string(m.Version),
		EnvProjectRoot+"="+projectRoot,
		EnvHook+"="+string(event),
	)

	runner, err := interp.New(
		interp.Dir(projectRoot),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, r.stdout, r.stderr),
	)
	if err != nil {
		return &HookError{Package: m.Name, Event: event, ExitCode: -1, Err: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	r.logger.Info("running hook", "package", m.Name, "hook", event)
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &HookError{Package: m.Name, Event: event, ExitCode: int(exitStatus)}
		}
		return &HookError{Package: m.Name, Event: event, ExitCode: -1, Err: err}
	}
	return nil
}
