// SPDX-License-Identifier: MPL-2.0

// Package issue holds prism's error catalog and the ActionableError type.
//
// Catalog entries are Markdown explanations keyed by Id and rendered with
// glamour when the CLI runs in verbose mode. An ActionableError carries the
// failed operation, the package or path involved and short fix hints, and may
// point at a catalog entry.
package issue
