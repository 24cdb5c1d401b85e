// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	goerrors "errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

type (
	// Violation is a single schema violation.
	Violation struct {
		// Path is the JSON path to the offending value (e.g. "structure[0].items[1]").
		// Empty for document-level problems such as syntax errors.
		Path string

		// Message is the violation message with any redundant path prefix removed.
		Message string
	}

	// SchemaError reports every violation found while checking one document.
	SchemaError struct {
		// FilePath is the file being validated.
		FilePath string

		Violations []Violation
	}
)

// String renders the violation as "<path>: <message>".
func (v Violation) String() string {
	if v.Path != "" {
		return fmt.Sprintf("%s: %s", v.Path, v.Message)
	}
	return v.Message
}

// Error implements the error interface.
//
// Format: <file-path>: <json-path>: <message>, or a multi-line listing when
// more than one violation was found.
func (e *SchemaError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", e.FilePath, e.Violations[0])
	}
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
}

// FormatError converts a CUE error into a *SchemaError carrying JSON-path
// prefixed violations. Errors that are not CUE errors are wrapped with the
// file path instead.
//
// Examples:
//   - prism-package.yaml: structure[0].type: conflicting values "agents" and "widgets"
//   - config.cue: run_hooks: conflicting values bool and "yes" (mismatched types bool and string)
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	// errors.Errors promotes plain errors, so check for a CUE error first.
	var cueErr errors.Error
	if !goerrors.As(err, &cueErr) {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	se := &SchemaError{FilePath: filePath}
	seen := make(map[string]bool, len(cueErrors))
	for _, e := range cueErrors {
		rawPath := errors.Path(e)
		pathStr := formatPath(rawPath)
		msg := e.Error()

		// CUE sometimes repeats the path at the start of the message.
		for _, prefix := range []string{strings.Join(rawPath, "."), pathStr} {
			if prefix != "" && strings.HasPrefix(msg, prefix) {
				msg = strings.TrimPrefix(msg, prefix)
				msg = strings.TrimPrefix(msg, ":")
				msg = strings.TrimSpace(msg)
				break
			}
		}

		key := pathStr + "\x00" + msg
		if seen[key] {
			continue
		}
		seen[key] = true
		se.Violations = append(se.Violations, Violation{Path: pathStr, Message: msg})
	}
	return se
}

// formatPath converts a CUE error path (e.g. ["structure", "0", "type"]) into
// JSON-path notation ("structure[0].type"). Leading definition names such as
// "#Manifest" are dropped.
func formatPath(path []string) string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	if len(path) == 0 {
		return ""
	}

	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize verifies that data does not exceed maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
