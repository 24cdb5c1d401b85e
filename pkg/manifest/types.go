// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/prism-cli/prism/pkg/semver"
)

const (
	StructureCommands      StructureType = "commands"
	StructureScripts       StructureType = "scripts"
	StructureRules         StructureType = "rules"
	StructureData          StructureType = "data"
	StructureTemplates     StructureType = "templates"
	StructureAgents        StructureType = "agents"
	StructureDocumentation StructureType = "documentation"
	// StructureClaudeConfig items are merged into the aggregated configuration
	// document instead of being copied.
	StructureClaudeConfig StructureType = "claude_config"

	HookPreInstall    HookEvent = "preInstall"
	HookPostInstall   HookEvent = "postInstall"
	HookPreUninstall  HookEvent = "preUninstall"
	HookPostUninstall HookEvent = "postUninstall"
	HookPreUpdate     HookEvent = "preUpdate"
	HookPostUpdate    HookEvent = "postUpdate"
)

var (
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrInvalidSemVer is the sentinel error wrapped by InvalidSemVerError.
	ErrInvalidSemVer = errors.New("invalid semver")
	// ErrInvalidSemVerRange is the sentinel error wrapped by InvalidSemVerRangeError.
	ErrInvalidSemVerRange = errors.New("invalid semver range")
	// ErrInvalidStructureType is the sentinel error wrapped by InvalidStructureTypeError.
	ErrInvalidStructureType = errors.New("invalid structure type")
	// ErrInvalidHookEvent is the sentinel error wrapped by InvalidHookEventError.
	ErrInvalidHookEvent = errors.New("invalid hook event")
	// ErrInvalidVariantName is the sentinel error wrapped by InvalidVariantNameError.
	ErrInvalidVariantName = errors.New("invalid variant name")

	packageNamePattern = regexp.MustCompile(`^[a-z0-9-_]+$`)
	variantNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

	structureTypes = []StructureType{
		StructureCommands, StructureScripts, StructureRules, StructureData,
		StructureTemplates, StructureAgents, StructureDocumentation, StructureClaudeConfig,
	}

	hookEvents = []HookEvent{
		HookPreInstall, HookPostInstall, HookPreUninstall,
		HookPostUninstall, HookPreUpdate, HookPostUpdate,
	}
)

type (
	// PackageName identifies a package: lowercase letters, digits, '-' and '_'.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName does not match
	// the identifier pattern.
	InvalidPackageNameError struct {
		Value PackageName
	}

	// SemVer is a strict semantic version string without a "v" prefix
	// (e.g. "1.0.0", "2.1.0-beta.1").
	SemVer string

	// InvalidSemVerError is returned when a SemVer value is not a strict
	// semantic version.
	InvalidSemVerError struct {
		Value SemVer
	}

	// SemVerRange is an npm-style version range (e.g. "^1.2.0", ">=1.0.0 <2.0.0").
	// The empty range matches every version.
	SemVerRange string

	// InvalidSemVerRangeError is returned when a SemVerRange cannot be parsed.
	InvalidSemVerRangeError struct {
		Value SemVerRange
	}

	// StructureType tags a structure section.
	StructureType string

	// InvalidStructureTypeError is returned for a tag outside the fixed enumeration.
	InvalidStructureTypeError struct {
		Value StructureType
	}

	// HookEvent names a lifecycle event a hook can be attached to.
	HookEvent string

	// InvalidHookEventError is returned for an event outside the fixed enumeration.
	InvalidHookEventError struct {
		Value HookEvent
	}

	// VariantName names an installation variant: a lowercase letter followed by
	// lowercase letters, digits or '-'.
	VariantName string

	// InvalidVariantNameError is returned when a VariantName does not match the
	// variant name pattern.
	InvalidVariantNameError struct {
		Value VariantName
	}
)

// StructureTypes returns every valid structure type in canonical order.
func StructureTypes() []StructureType {
	return append([]StructureType(nil), structureTypes...)
}

// HookEvents returns every valid hook event in lifecycle order.
func HookEvents() []HookEvent {
	return append([]HookEvent(nil), hookEvents...)
}

// Error implements the error interface.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q (must match ^[a-z0-9-_]+$)", e.Value)
}

// Unwrap returns ErrInvalidPackageName so callers can use errors.Is for programmatic detection.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// IsValid returns whether the PackageName matches the identifier pattern,
// and a list of validation errors if it does not.
func (n PackageName) IsValid() (bool, []error) {
	if !packageNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidPackageNameError{Value: n}}
	}
	return true, nil
}

// String returns the string representation of the PackageName.
func (n PackageName) String() string { return string(n) }

// Error implements the error interface.
func (e *InvalidSemVerError) Error() string {
	return fmt.Sprintf("invalid semver %q (expected MAJOR.MINOR.PATCH, e.g. 1.0.0)", e.Value)
}

// Unwrap returns ErrInvalidSemVer so callers can use errors.Is for programmatic detection.
func (e *InvalidSemVerError) Unwrap() error { return ErrInvalidSemVer }

// IsValid returns whether the SemVer is a strict semantic version, and a list
// of validation errors if it is not.
func (s SemVer) IsValid() (bool, []error) {
	if strings.HasPrefix(string(s), "v") || !semver.IsValid(string(s)) {
		return false, []error{&InvalidSemVerError{Value: s}}
	}
	return true, nil
}

// String returns the string representation of the SemVer.
func (s SemVer) String() string { return string(s) }

// Error implements the error interface.
func (e *InvalidSemVerRangeError) Error() string {
	return fmt.Sprintf("invalid semver range %q", e.Value)
}

// Unwrap returns ErrInvalidSemVerRange so callers can use errors.Is for programmatic detection.
func (e *InvalidSemVerRangeError) Unwrap() error { return ErrInvalidSemVerRange }

// IsValid returns whether the SemVerRange parses, and a list of validation
// errors if it does not.
func (r SemVerRange) IsValid() (bool, []error) {
	if !semver.IsValidRange(string(r)) {
		return false, []error{&InvalidSemVerRangeError{Value: r}}
	}
	return true, nil
}

// String returns the string representation of the SemVerRange.
func (r SemVerRange) String() string { return string(r) }

// Error implements the error interface.
func (e *InvalidStructureTypeError) Error() string {
	return fmt.Sprintf("invalid structure type %q (valid: %s)", e.Value, joinStructureTypes())
}

// Unwrap returns ErrInvalidStructureType so callers can use errors.Is for programmatic detection.
func (e *InvalidStructureTypeError) Unwrap() error { return ErrInvalidStructureType }

// IsValid returns whether the StructureType is one of the defined tags,
// and a list of validation errors if it is not.
func (t StructureType) IsValid() (bool, []error) {
	for _, st := range structureTypes {
		if t == st {
			return true, nil
		}
	}
	return false, []error{&InvalidStructureTypeError{Value: t}}
}

// String returns the string representation of the StructureType.
func (t StructureType) String() string { return string(t) }

// Error implements the error interface.
func (e *InvalidHookEventError) Error() string {
	return fmt.Sprintf("invalid hook event %q (valid: %s)", e.Value, joinHookEvents())
}

// Unwrap returns ErrInvalidHookEvent so callers can use errors.Is for programmatic detection.
func (e *InvalidHookEventError) Unwrap() error { return ErrInvalidHookEvent }

// IsValid returns whether the HookEvent is one of the defined lifecycle events,
// and a list of validation errors if it is not.
func (h HookEvent) IsValid() (bool, []error) {
	for _, ev := range hookEvents {
		if h == ev {
			return true, nil
		}
	}
	return false, []error{&InvalidHookEventError{Value: h}}
}

// String returns the string representation of the HookEvent.
func (h HookEvent) String() string { return string(h) }

// Error implements the error interface.
func (e *InvalidVariantNameError) Error() string {
	return fmt.Sprintf("invalid variant name %q (must match ^[a-z][a-z0-9-]*$)", e.Value)
}

// Unwrap returns ErrInvalidVariantName so callers can use errors.Is for programmatic detection.
func (e *InvalidVariantNameError) Unwrap() error { return ErrInvalidVariantName }

// IsValid returns whether the VariantName matches the variant name pattern,
// and a list of validation errors if it does not.
func (n VariantName) IsValid() (bool, []error) {
	if !variantNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidVariantNameError{Value: n}}
	}
	return true, nil
}

// String returns the string representation of the VariantName.
func (n VariantName) String() string { return string(n) }

func joinStructureTypes() string {
	names := make([]string, len(structureTypes))
	for i, st := range structureTypes {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func joinHookEvents() string {
	names := make([]string, len(hookEvents))
	for i, ev := range hookEvents {
		names[i] = string(ev)
	}
	return strings.Join(names, ", ")
}
