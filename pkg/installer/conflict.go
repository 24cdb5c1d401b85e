// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"github.com/prism-cli/prism/pkg/manifest"
	"github.com/prism-cli/prism/pkg/semver"
)

// CheckConflict compares the installed version of m's package (empty when not
// installed) with m's version. It returns nil when nothing is installed and a
// *ConflictError otherwise.
func CheckConflict(installedVersion string, m *manifest.Manifest) error {
	if installedVersion == "" {
		return nil
	}
	return &ConflictError{
		Name:      m.Name,
		Installed: installedVersion,
		Requested: string(m.Version),
	}
}

// Upgrade reports whether the requested version is newer than the installed one.
func (e *ConflictError) Upgrade() bool {
	return semver.Compare(e.Requested, e.Installed) > 0
}

// Advisory reports whether the installed version differs from the requested
// one. Build metadata is ignored.
func (e *ConflictError) Advisory() bool {
	if semver.IsValid(e.Installed) && semver.IsValid(e.Requested) {
		return semver.Compare(e.Installed, e.Requested) != 0
	}
	return e.Installed != e.Requested
}
