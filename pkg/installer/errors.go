// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"fmt"

	"github.com/prism-cli/prism/pkg/manifest"
)

var (
	// ErrAlreadyInstalled is matched by a *ConflictError when the requested
	// version is the one already installed.
	ErrAlreadyInstalled = errors.New("package already installed")
	// ErrOutsideRoot is returned when a destination resolves outside the project root.
	ErrOutsideRoot = errors.New("destination outside project root")
)

type (
	// IOError is a filesystem failure during copy, write or remove. It is fatal
	// for the current operation; files written before it are left in place.
	IOError struct {
		Op   string
		Path string
		Err  error
	}

	// MissingSourceWarning records a structure item whose source is absent
	// from the package. Installation continues past it.
	MissingSourceWarning struct {
		Type   manifest.StructureType
		Source string
		Path   string
	}

	// ConflictError signals that a version of the package is already installed.
	// It matches ErrAlreadyInstalled only when the versions are equal; for a
	// different version it is an advisory the caller may ignore.
	ConflictError struct {
		Name      manifest.PackageName
		Installed string
		Requested string
	}
)

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *IOError) Unwrap() error { return e.Err }

// String describes the warning.
func (w MissingSourceWarning) String() string {
	return fmt.Sprintf("%s source %q not found at %s; skipped", w.Type, w.Source, w.Path)
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if !e.Advisory() {
		return fmt.Sprintf("%s@%s is already installed", e.Name, e.Installed)
	}
	verb := "downgrade"
	if e.Upgrade() {
		verb = "upgrade"
	}
	return fmt.Sprintf("%s@%s is installed; installing %s will %s it", e.Name, e.Installed, e.Requested, verb)
}

// Is reports whether target is ErrAlreadyInstalled and the versions match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyInstalled && !e.Advisory()
}
