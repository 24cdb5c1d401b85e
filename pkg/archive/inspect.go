// SPDX-License-Identifier: MPL-2.0

package archive

import "github.com/prism-cli/prism/pkg/manifest"

// Inspect collects the package at sourceDir and reports variants that would
// select none of its files.
func Inspect(sourceDir string, m *manifest.Manifest) ([]string, []manifest.ValidationIssue, error) {
	files, err := Collect(sourceDir, m)
	if err != nil {
		return nil, nil, err
	}
	return files, manifest.CheckVariantCoverage(m, files), nil
}
