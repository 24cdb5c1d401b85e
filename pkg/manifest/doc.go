// SPDX-License-Identifier: MPL-2.0

// Package manifest models a Prism package manifest (prism-package.yaml).
//
// A manifest moves through three pure stages:
//
//  1. Decode parses the YAML document, checks its shape against the embedded
//     CUE schema and translates it into the typed model, preserving the
//     declared order of structure sections and variants.
//  2. Normalize fills every optional field with its default so consumers never
//     branch on absence. It is idempotent.
//  3. Validate (or Check, which also returns warnings) enforces the semantic
//     rules: identifiers, versions, destinations, variants, dependencies and
//     hook safety.
//
// Parse runs all three. ResolveVariant picks the include/exclude policy used
// for installation, falling back to the first declared variant when the
// requested name is unknown.
package manifest
