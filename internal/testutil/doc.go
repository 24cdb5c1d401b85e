// SPDX-License-Identifier: MPL-2.0

// Package testutil provides file-tree fixtures for tests: writing package
// layouts (WriteTree, WriteFile), inspecting what an operation left on disk
// (Snapshot, Exists, MustReadFile) and fail-fast wrappers (MustMkdirAll,
// MustClose).
package testutil
