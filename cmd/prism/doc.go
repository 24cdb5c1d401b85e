// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for prism.
//
// This package implements the Cobra command hierarchy: validating, packaging
// and unpacking packages, installing them into a project (with lifecycle
// hooks and dependency checks), removing them again, and a development mode
// that re-installs on every source change.
package cmd
