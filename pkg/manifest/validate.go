// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/prism-cli/prism/pkg/glob"
	"github.com/prism-cli/prism/pkg/semver"
)

const (
	// SeverityError marks an issue that makes the manifest invalid.
	SeverityError Severity = iota
	// SeverityWarning marks an advisory issue that never fails validation.
	SeverityWarning
)

var (
	// ErrInvalidManifest is the sentinel wrapped by every *ValidationError.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrInvalidSeverity is returned when a Severity value is not one of the defined severities.
	ErrInvalidSeverity = errors.New("invalid severity")
)

type (
	// Severity indicates whether a ValidationIssue fails validation.
	Severity int

	// InvalidSeverityError is returned when a Severity value is not recognized.
	InvalidSeverityError struct {
		Value Severity
	}

	// ValidationIssue is a single problem found in a manifest.
	ValidationIssue struct {
		// Field is the JSON-style path of the offending value (e.g. "structure.commands[0].dest").
		Field    string
		Message  string
		Severity Severity
	}

	// ValidationError reports a malformed manifest or a violated invariant.
	// It lists every error-severity issue found.
	ValidationError struct {
		FilePath string
		Issues   []ValidationIssue
	}
)

// Error implements the error interface.
func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid severity %d (valid: 0=error, 1=warning)", e.Value)
}

// Unwrap returns ErrInvalidSeverity for errors.Is() compatibility.
func (e *InvalidSeverityError) Unwrap() error { return ErrInvalidSeverity }

// IsValid returns whether the Severity is one of the defined levels,
// and a list of validation errors if it is not.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityError, SeverityWarning:
		return true, nil
	default:
		return false, []error{&InvalidSeverityError{Value: s}}
	}
}

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// String renders the issue as "<field>: <message>".
func (i ValidationIssue) String() string {
	if i.Field != "" {
		return i.Field + ": " + i.Message
	}
	return i.Message
}

// IsError returns true if this is an error-level issue.
func (i ValidationIssue) IsError() bool { return i.Severity == SeverityError }

// Error implements the error interface.
func (e *ValidationError) Error() string {
	prefix := "invalid manifest"
	if e.FilePath != "" {
		prefix = e.FilePath
	}
	if len(e.Issues) == 1 {
		return prefix + ": " + e.Issues[0].String()
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(": validation failed with ")
	b.WriteString(strconv.Itoa(len(e.Issues)))
	b.WriteString(" errors:")
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.String())
	}
	return b.String()
}

// Unwrap returns ErrInvalidManifest so callers can use errors.Is for programmatic detection.
func (e *ValidationError) Unwrap() error { return ErrInvalidManifest }

func newValidationError(filePath string, issues ...ValidationIssue) *ValidationError {
	return &ValidationError{FilePath: filePath, Issues: issues}
}

func issuef(sev Severity, field, format string, args ...any) ValidationIssue {
	return ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...), Severity: sev}
}

// Validate checks every semantic rule and returns a *ValidationError listing
// the error-severity issues, or nil. Warnings are ignored; use Check to see them.
// Validate does not modify m and may be called any number of times.
func Validate(m *Manifest) error {
	var errs []ValidationIssue
	for _, issue := range Check(m) {
		if issue.IsError() {
			errs = append(errs, issue)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return newValidationError(m.FilePath, errs...)
}

// Check runs every check and returns all issues, errors and warnings alike.
func Check(m *Manifest) []ValidationIssue {
	var issues []ValidationIssue
	issues = append(issues, CheckIdentity(m)...)
	issues = append(issues, CheckStructure(m)...)
	issues = append(issues, CheckVariants(m)...)
	issues = append(issues, CheckDependencies(m)...)
	issues = append(issues, CheckHooks(m)...)
	return issues
}

// CheckIdentity checks name, version, description and the compatibility bounds.
func CheckIdentity(m *Manifest) []ValidationIssue {
	var issues []ValidationIssue

	if m.Name == "" {
		issues = append(issues, issuef(SeverityError, "name", "name is required"))
	} else if ok, errs := m.Name.IsValid(); !ok {
		issues = append(issues, issuef(SeverityError, "name", "%v", errs[0]))
	}

	if m.Version == "" {
		issues = append(issues, issuef(SeverityError, "version", "version is required"))
	} else if ok, errs := m.Version.IsValid(); !ok {
		issues = append(issues, issuef(SeverityError, "version", "%v", errs[0]))
	}

	if strings.TrimSpace(m.Description) == "" {
		issues = append(issues, issuef(SeverityError, "description", "description is required"))
	}

	if compat := m.PlatformCompat; compat != nil {
		validBounds := true
		bounds := []struct {
			field string
			value SemVer
		}{{"minVersion", compat.MinVersion}, {"maxVersion", compat.MaxVersion}}
		for _, b := range bounds {
			if b.value == "" {
				validBounds = false
				continue
			}
			if ok, errs := b.value.IsValid(); !ok {
				validBounds = false
				issues = append(issues, issuef(SeverityError, "platformCompat."+b.field, "%v", errs[0]))
			}
		}
		if validBounds && semver.Compare(string(compat.MinVersion), string(compat.MaxVersion)) > 0 {
			issues = append(issues, issuef(SeverityWarning, "platformCompat",
				"minVersion %s is greater than maxVersion %s", compat.MinVersion, compat.MaxVersion))
		}
	}

	return issues
}

// CheckStructure checks structure types and every item's source and destination.
func CheckStructure(m *Manifest) []ValidationIssue {
	if len(m.Structure) == 0 {
		return []ValidationIssue{issuef(SeverityError, "structure", "structure is required and must declare at least one section")}
	}

	var issues []ValidationIssue
	seen := make(map[StructureType]bool, len(m.Structure))
	for _, section := range m.Structure {
		field := "structure." + string(section.Type)
		if ok, errs := section.Type.IsValid(); !ok {
			issues = append(issues, issuef(SeverityError, field, "%v", errs[0]))
		}
		if seen[section.Type] {
			issues = append(issues, issuef(SeverityError, field, "structure type declared more than once"))
		}
		seen[section.Type] = true

		for i, item := range section.Items {
			issues = append(issues, checkItem(section.Type, item, fmt.Sprintf("%s[%d]", field, i))...)
		}
	}
	return issues
}

func checkItem(t StructureType, item StructureItem, field string) []ValidationIssue {
	var issues []ValidationIssue

	if strings.TrimSpace(item.Source) == "" {
		issues = append(issues, issuef(SeverityError, field+".source", "source is required"))
	} else if escapesRoot(item.Source) {
		issues = append(issues, issuef(SeverityError, field+".source",
			"source %q must be a relative path inside the package", item.Source))
	}

	switch {
	case strings.TrimSpace(item.Dest) == "":
		issues = append(issues, issuef(SeverityError, field+".dest", "dest is required"))
	case escapesRoot(item.Dest):
		issues = append(issues, issuef(SeverityError, field+".dest",
			"dest %q must be a relative path inside the project", item.Dest))
	case t != StructureClaudeConfig && !strings.Contains(item.Dest, "{name}"):
		issues = append(issues, issuef(SeverityWarning, field+".dest",
			"dest %q does not contain {name}; files may collide with other packages and uninstall removes the whole directory", item.Dest))
	}

	return issues
}

// escapesRoot reports whether p is absolute or climbs above its root.
func escapesRoot(p string) bool {
	p = strings.ReplaceAll(p, "\\", "/")
	if path.IsAbs(p) || (len(p) >= 2 && p[1] == ':') {
		return true
	}
	clean := path.Clean(p)
	return clean == ".." || strings.HasPrefix(clean, "../")
}

// CheckVariants checks variant names, descriptions and include lists.
func CheckVariants(m *Manifest) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[VariantName]bool, len(m.Variants))
	for _, v := range m.Variants {
		field := "variants." + string(v.Name)
		if ok, errs := v.Name.IsValid(); !ok {
			issues = append(issues, issuef(SeverityError, field, "%v", errs[0]))
		}
		if seen[v.Name] {
			issues = append(issues, issuef(SeverityError, field, "variant declared more than once"))
		}
		seen[v.Name] = true

		if strings.TrimSpace(v.Description) == "" {
			issues = append(issues, issuef(SeverityError, field+".description", "description is required"))
		}
		if len(v.Include) == 0 {
			issues = append(issues, issuef(SeverityError, field+".include", "include must list at least one pattern"))
		}
		for i, p := range v.Include {
			if strings.TrimSpace(p) == "" {
				issues = append(issues, issuef(SeverityError, fmt.Sprintf("%s.include[%d]", field, i), "pattern must not be empty"))
			}
		}
	}
	return issues
}

// CheckVariantCoverage warns about variants that select none of files, which
// are package-root relative paths.
func CheckVariantCoverage(m *Manifest, files []string) []ValidationIssue {
	var issues []ValidationIssue
	for _, v := range m.Variants {
		if len(glob.FilterByVariant(files, v, "")) == 0 {
			issues = append(issues, issuef(SeverityWarning, "variants."+string(v.Name),
				"variant matches no files in the package"))
		}
	}
	return issues
}

// CheckDependencies checks system dependencies and package version ranges.
func CheckDependencies(m *Manifest) []ValidationIssue {
	var issues []ValidationIssue

	for i, dep := range m.Dependencies.System {
		field := fmt.Sprintf("dependencies.system[%d]", i)
		if strings.TrimSpace(dep.Name) == "" {
			issues = append(issues, issuef(SeverityError, field+".name", "name is required"))
		}
		if dep.Version != "" {
			if ok, errs := dep.Version.IsValid(); !ok {
				issues = append(issues, issuef(SeverityError, field+".version", "%v", errs[0]))
			}
		}
	}

	for _, name := range sortedPrismDeps(m.Dependencies.Prism) {
		field := "dependencies.prism." + string(name)
		if ok, errs := name.IsValid(); !ok {
			issues = append(issues, issuef(SeverityError, field, "%v", errs[0]))
		}
		if ok, errs := m.Dependencies.Prism[name].IsValid(); !ok {
			issues = append(issues, issuef(SeverityError, field, "%v", errs[0]))
		}
	}

	return issues
}

// CheckHooks checks hook events and rejects hooks that do not parse as shell
// or that run an unconditionally destructive command.
func CheckHooks(m *Manifest) []ValidationIssue {
	var issues []ValidationIssue
	for _, event := range sortedHookEvents(m.Hooks) {
		field := "hooks." + string(event)
		if ok, errs := event.IsValid(); !ok {
			issues = append(issues, issuef(SeverityError, field, "%v", errs[0]))
			continue
		}
		if err := CheckHookSafety(m.Hooks[event]); err != nil {
			issues = append(issues, issuef(SeverityError, field, "%v", err))
		}
	}
	return issues
}
