// SPDX-License-Identifier: MPL-2.0

// Package semver parses semantic versions and npm-style version ranges.
//
// Versions are strict: MAJOR.MINOR.PATCH with optional pre-release and build
// metadata ("1.0.0", "2.1.0-beta.1", "1.0.0+build.5"). An optional leading "v"
// is accepted. Shorthand forms such as "1.0" are rejected.
//
// Ranges accept the comparators =, >, >=, <, <=, ^ and ~, wildcards (*, x, X),
// partial versions ("1.2", "1.x"), hyphen ranges, whitespace-separated
// conjunctions and "||"-separated alternatives:
//
//	^1.2.0
//	>=1.0.0 <2.0.0
//	1.2.3 - 2.3
//	1.x || ^2.0.0-beta.1
package semver

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	xsemver "golang.org/x/mod/semver"
)

var (
	// ErrInvalidVersion is returned when a string is not a strict semantic version.
	ErrInvalidVersion = errors.New("invalid semantic version")
	// ErrInvalidRange is returned when a string is not a valid version range.
	ErrInvalidRange = errors.New("invalid version range")

	// versionRegex is the semver.org reference expression with an optional "v" prefix.
	versionRegex = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
		`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

	// comparatorRegex matches one comparator: optional operator followed by a
	// possibly partial version whose trailing components may be wildcards.
	comparatorRegex = regexp.MustCompile(`^(\^|~|>=|<=|>|<|=)?v?` +
		`(\d+|[xX*])(?:\.(\d+|[xX*]))?(?:\.(\d+|[xX*]))?` +
		`(?:-([0-9A-Za-z\-.]+))?(?:\+[0-9A-Za-z\-.]+)?$`)
)

type (
	// Version represents a parsed semantic version.
	Version struct {
		Major      int
		Minor      int
		Patch      int
		Prerelease string
		Build      string
		Original   string
	}

	// Op is a comparison operator inside a range.
	Op string

	// Constraint is a single comparator such as ">=1.2.0".
	Constraint struct {
		// Op is the comparison operator (=, >, >=, <, <=).
		Op Op
		// Version is the version to compare against.
		Version *Version
	}

	// Range is a disjunction of constraint sets. A version is contained in the
	// range when every constraint of at least one set matches.
	Range struct {
		sets     [][]Constraint
		Original string
	}

	// partial holds a comparator version where some components may be omitted
	// or wildcarded. A -1 component means "any".
	partial struct {
		major, minor, patch int
		prerelease         string
	}
)

const (
	OpEqual          Op = "="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
)

// Parse parses a strict semantic version string.
func Parse(s string) (*Version, error) {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	v := &Version{Original: s, Prerelease: matches[4], Build: matches[5]}

	var err error
	if v.Major, err = strconv.Atoi(matches[1]); err != nil {
		return nil, fmt.Errorf("%w: major component of %q: %w", ErrInvalidVersion, s, err)
	}
	if v.Minor, err = strconv.Atoi(matches[2]); err != nil {
		return nil, fmt.Errorf("%w: minor component of %q: %w", ErrInvalidVersion, s, err)
	}
	if v.Patch, err = strconv.Atoi(matches[3]); err != nil {
		return nil, fmt.Errorf("%w: patch component of %q: %w", ErrInvalidVersion, s, err)
	}

	return v, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether s is a strict semantic version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String returns the version as originally written.
func (v *Version) String() string {
	return v.Original
}

// Canonical returns the version in "vMAJOR.MINOR.PATCH[-pre]" form, the format
// expected by golang.org/x/mod/semver. Build metadata is dropped because it
// does not participate in precedence.
func (v *Version) Canonical() string {
	s := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare compares two versions by semver precedence.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v *Version) Compare(other *Version) int {
	return xsemver.Compare(v.Canonical(), other.Canonical())
}

// Compare parses both strings and compares them. Invalid versions sort before
// valid ones, and two invalid versions compare equal.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}

// Matches checks if a version satisfies the constraint.
func (c Constraint) Matches(v *Version) bool {
	cmp := v.Compare(c.Version)
	switch c.Op {
	case OpEqual:
		return cmp == 0
	case OpGreater:
		return cmp > 0
	case OpGreaterOrEqual:
		return cmp >= 0
	case OpLess:
		return cmp < 0
	case OpLessOrEqual:
		return cmp <= 0
	default:
		return false
	}
}

// String renders the constraint as "<op><version>".
func (c Constraint) String() string {
	return string(c.Op) + c.Version.Canonical()[1:]
}

// ParseRange parses a version range expression.
func ParseRange(s string) (*Range, error) {
	trimmed := strings.TrimSpace(s)
	r := &Range{Original: s}

	for _, alt := range strings.Split(trimmed, "||") {
		fields := strings.Fields(alt)
		if len(fields) == 0 {
			if trimmed == "" {
				// An empty range means "any version", like "*".
				fields = []string{"*"}
			} else {
				return nil, fmt.Errorf("%w: empty alternative in %q", ErrInvalidRange, s)
			}
		}

		fields = expandHyphenRanges(fields)
		fields = joinDetachedOperators(fields)

		var set []Constraint
		for _, field := range fields {
			constraints, err := parseComparator(field)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrInvalidRange, s, err)
			}
			set = append(set, constraints...)
		}
		r.sets = append(r.sets, set)
	}

	return r, nil
}

// IsValidRange reports whether s is a valid version range.
func IsValidRange(s string) bool {
	_, err := ParseRange(s)
	return err == nil
}

// Contains reports whether v satisfies the range.
//
// Pre-release versions only satisfy a constraint set that itself names a
// pre-release on the same MAJOR.MINOR.PATCH tuple, matching npm semantics.
func (r *Range) Contains(v *Version) bool {
	for _, set := range r.sets {
		if setMatches(set, v) {
			return true
		}
	}
	return false
}

// String returns the range as originally written.
func (r *Range) String() string {
	return r.Original
}

// Satisfies reports whether version satisfies rangeStr.
func Satisfies(version, rangeStr string) (bool, error) {
	v, err := Parse(version)
	if err != nil {
		return false, err
	}
	r, err := ParseRange(rangeStr)
	if err != nil {
		return false, err
	}
	return r.Contains(v), nil
}

// Resolve finds the highest available version contained in the range.
func Resolve(rangeStr string, available []string) (string, error) {
	r, err := ParseRange(rangeStr)
	if err != nil {
		return "", err
	}

	var matching []*Version
	for _, s := range available {
		v, parseErr := Parse(s)
		if parseErr != nil {
			continue
		}
		if r.Contains(v) {
			matching = append(matching, v)
		}
	}

	if len(matching) == 0 {
		return "", fmt.Errorf("no version matches range %q (available: %v)", rangeStr, available)
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].Compare(matching[j]) > 0
	})

	return matching[0].Original, nil
}

func setMatches(set []Constraint, v *Version) bool {
	for _, c := range set {
		if !c.Matches(v) {
			return false
		}
	}

	if v.Prerelease == "" {
		return true
	}

	for _, c := range set {
		cv := c.Version
		if cv.Prerelease != "" && cv.Major == v.Major && cv.Minor == v.Minor && cv.Patch == v.Patch {
			return true
		}
	}
	return false
}

// expandHyphenRanges rewrites "1.2.3 - 2.3.4" into ">=1.2.3 <=2.3.4".
// Partial bounds keep their wildcard meaning: "1.2 - 2" is >=1.2.0 <3.0.0.
func expandHyphenRanges(fields []string) []string {
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		if i+2 < len(fields) && fields[i+1] == "-" && !isBareOperator(fields[i]) {
			out = append(out, ">="+fields[i], "<="+fields[i+2])
			i += 2
			continue
		}
		out = append(out, fields[i])
	}
	return out
}

// joinDetachedOperators merges ">= 1.0.0" written with a space into ">=1.0.0".
func joinDetachedOperators(fields []string) []string {
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if isBareOperator(f) && i+1 < len(fields) {
			out = append(out, f+fields[i+1])
			i++
			continue
		}
		out = append(out, f)
	}
	return out
}

func isBareOperator(s string) bool {
	switch s {
	case "^", "~", ">=", "<=", ">", "<", "=":
		return true
	}
	return false
}

// parseComparator expands one comparator into primitive constraints.
func parseComparator(s string) ([]Constraint, error) {
	m := comparatorRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid comparator %q", s)
	}

	p := partial{prerelease: m[5]}
	for i, dst := range []*int{&p.major, &p.minor, &p.patch} {
		n, err := component(m[i+2])
		if err != nil {
			return nil, fmt.Errorf("invalid comparator %q: %w", s, err)
		}
		*dst = n
	}
	if p.major < 0 {
		if Op(m[1]) == OpLess || Op(m[1]) == OpGreater {
			// "<*" and ">*" admit nothing.
			return []Constraint{{Op: OpLess, Version: newVersion(0, 0, 0, "0")}}, nil
		}
		// "*" and friends: any release version.
		return []Constraint{{Op: OpGreaterOrEqual, Version: newVersion(0, 0, 0, "")}}, nil
	}
	if p.prerelease != "" && (p.minor < 0 || p.patch < 0) {
		return nil, fmt.Errorf("pre-release requires a full version in %q", s)
	}

	switch Op(m[1]) {
	case "":
		return expandEqual(p), nil
	case OpEqual:
		return expandEqual(p), nil
	case "^":
		return expandCaret(p), nil
	case "~":
		return expandTilde(p), nil
	case OpGreater:
		if p.minor < 0 {
			return []Constraint{{Op: OpGreaterOrEqual, Version: newVersion(p.major+1, 0, 0, "")}}, nil
		}
		if p.patch < 0 {
			return []Constraint{{Op: OpGreaterOrEqual, Version: newVersion(p.major, p.minor+1, 0, "")}}, nil
		}
		return []Constraint{{Op: OpGreater, Version: p.floor()}}, nil
	case OpGreaterOrEqual:
		return []Constraint{{Op: OpGreaterOrEqual, Version: p.floor()}}, nil
	case OpLess:
		return []Constraint{{Op: OpLess, Version: p.floor()}}, nil
	case OpLessOrEqual:
		if p.minor < 0 {
			return []Constraint{{Op: OpLess, Version: newVersion(p.major+1, 0, 0, "")}}, nil
		}
		if p.patch < 0 {
			return []Constraint{{Op: OpLess, Version: newVersion(p.major, p.minor+1, 0, "")}}, nil
		}
		return []Constraint{{Op: OpLessOrEqual, Version: p.floor()}}, nil
	}

	return nil, fmt.Errorf("unsupported operator %q", m[1])
}

// expandEqual handles "1.2.3", "1.2", "1.x" and "=1.2.3".
func expandEqual(p partial) []Constraint {
	switch {
	case p.minor < 0:
		return between(newVersion(p.major, 0, 0, ""), newVersion(p.major+1, 0, 0, ""))
	case p.patch < 0:
		return between(newVersion(p.major, p.minor, 0, ""), newVersion(p.major, p.minor+1, 0, ""))
	default:
		return []Constraint{{Op: OpEqual, Version: p.floor()}}
	}
}

// expandCaret allows changes that do not modify the left-most non-zero component:
// ^1.2.3 := >=1.2.3 <2.0.0, ^0.2.3 := >=0.2.3 <0.3.0, ^0.0.3 := >=0.0.3 <0.0.4.
func expandCaret(p partial) []Constraint {
	low := p.floor()
	switch {
	case p.major > 0 || p.minor < 0:
		return between(low, newVersion(p.major+1, 0, 0, ""))
	case p.minor > 0 || p.patch < 0:
		return between(low, newVersion(0, p.minor+1, 0, ""))
	default:
		return between(low, newVersion(0, 0, p.patch+1, ""))
	}
}

// expandTilde allows patch-level changes: ~1.2.3 := >=1.2.3 <1.3.0, ~1 := >=1.0.0 <2.0.0.
func expandTilde(p partial) []Constraint {
	low := p.floor()
	if p.minor < 0 {
		return between(low, newVersion(p.major+1, 0, 0, ""))
	}
	return between(low, newVersion(p.major, p.minor+1, 0, ""))
}

func between(low, high *Version) []Constraint {
	// The upper bound excludes pre-releases of the next version: <2.0.0-0.
	high.Prerelease = "0"
	high.Original = high.Canonical()[1:]
	return []Constraint{
		{Op: OpGreaterOrEqual, Version: low},
		{Op: OpLess, Version: high},
	}
}

func (p partial) floor() *Version {
	minor, patch := p.minor, p.patch
	if minor < 0 {
		minor = 0
	}
	if patch < 0 {
		patch = 0
	}
	return newVersion(p.major, minor, patch, p.prerelease)
}

func newVersion(major, minor, patch int, prerelease string) *Version {
	v := &Version{Major: major, Minor: minor, Patch: patch, Prerelease: prerelease}
	v.Original = v.Canonical()[1:]
	return v
}

// component parses one partial version component; missing or wildcard is -1.
func component(s string) (int, error) {
	if s == "" || s == "x" || s == "X" || s == "*" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("version component %q out of range", s)
	}
	return n, nil
}
