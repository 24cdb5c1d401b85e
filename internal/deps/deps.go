// SPDX-License-Identifier: MPL-2.0

// Package deps checks a manifest's declared dependencies against the host
// (executables on PATH) and against the set of installed Prism packages.
package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/prism-cli/prism/pkg/manifest"
	"github.com/prism-cli/prism/pkg/semver"
)

const (
	// SeverityError marks a problem that blocks installation.
	SeverityError Severity = "error"
	// SeverityWarning marks a problem that is reported but tolerated.
	SeverityWarning Severity = "warning"

	KindSystem Kind = "system"
	KindPrism  Kind = "prism"
)

// ErrNotSatisfied is the sentinel wrapped by NotSatisfiedError.
var ErrNotSatisfied = errors.New("dependencies not satisfied")

type (
	// Severity grades a dependency problem.
	Severity string

	// Kind tells system executables apart from Prism packages.
	Kind string

	// LookPathFunc resolves an executable name, like exec.LookPath.
	LookPathFunc func(file string) (string, error)

	// Problem is one unmet dependency.
	Problem struct {
		Kind     Kind
		Name     string
		Severity Severity
		// Want is the declared range, empty when any version is accepted.
		Want manifest.SemVerRange
		// Found is the installed version, empty when missing.
		Found string
		// Install is the manifest's install hint for system dependencies.
		Install string
	}

	// NotSatisfiedError carries every error-severity problem for a package.
	NotSatisfiedError struct {
		Package  manifest.PackageName
		Problems []Problem
	}
)

// String renders the problem as a single line.
func (p Problem) String() string {
	var sb strings.Builder
	sb.WriteString(p.Name)
	switch {
	case p.Found == "":
		sb.WriteString(" - not found")
	default:
		fmt.Fprintf(&sb, " - version %s does not satisfy %s", p.Found, p.Want)
	}
	if p.Install != "" {
		fmt.Fprintf(&sb, " (install: %s)", p.Install)
	}
	return sb.String()
}

// Error implements the error interface.
func (e *NotSatisfiedError) Error() string {
	names := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		names[i] = p.Name
	}
	return fmt.Sprintf("dependencies not satisfied for package '%s': %s", e.Package, strings.Join(names, ", "))
}

// Unwrap returns ErrNotSatisfied so callers can use errors.Is for programmatic detection.
func (e *NotSatisfiedError) Unwrap() error { return ErrNotSatisfied }

// CheckSystem reports declared system dependencies that lookPath cannot find.
// Missing required dependencies are errors; optional ones are warnings.
// A nil lookPath uses exec.LookPath. Versions of executables are not checked.
func CheckSystem(m *manifest.Manifest, lookPath LookPathFunc) []Problem {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var problems []Problem
	for _, dep := range m.Dependencies.System {
		if _, err := lookPath(dep.Name); err == nil {
			continue
		}
		severity := SeverityError
		if !dep.IsRequired() {
			severity = SeverityWarning
		}
		problems = append(problems, Problem{
			Kind:     KindSystem,
			Name:     dep.Name,
			Severity: severity,
			Want:     dep.Version,
			Install:  dep.Install,
		})
	}
	return problems
}

// CheckPrism reports Prism package dependencies that are missing from
// installed (package name to version) or whose installed version falls
// outside the declared range. Results are ordered by package name.
func CheckPrism(m *manifest.Manifest, installed map[string]string) []Problem {
	names := make([]string, 0, len(m.Dependencies.Prism))
	for name := range m.Dependencies.Prism {
		names = append(names, string(name))
	}
	sort.Strings(names)

	var problems []Problem
	for _, name := range names {
		want := m.Dependencies.Prism[manifest.PackageName(name)]
		found, ok := installed[name]
		if !ok {
			problems = append(problems, Problem{Kind: KindPrism, Name: name, Severity: SeverityError, Want: want})
			continue
		}
		if satisfied, err := semver.Satisfies(found, string(want)); err != nil || !satisfied {
			problems = append(problems, Problem{Kind: KindPrism, Name: name, Severity: SeverityError, Want: want, Found: found})
		}
	}
	return problems
}

// Check runs both checks and returns a *NotSatisfiedError when any problem is
// an error. Warnings are returned either way. A nil installed map means the
// installed set is unknown and skips the Prism package checks.
func Check(m *manifest.Manifest, installed map[string]string, lookPath LookPathFunc) ([]Problem, error) {
	all := CheckSystem(m, lookPath)
	if installed != nil {
		all = append(all, CheckPrism(m, installed)...)
	}

	var warnings, failures []Problem
	for _, p := range all {
		if p.Severity == SeverityError {
			failures = append(failures, p)
		} else {
			warnings = append(warnings, p)
		}
	}
	if len(failures) > 0 {
		return warnings, &NotSatisfiedError{Package: m.Name, Problems: failures}
	}
	return warnings, nil
}
