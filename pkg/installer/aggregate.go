// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultAggregatePath is the aggregated configuration document, relative to
// the project root.
const DefaultAggregatePath = ".claude/CLAUDE.md"

const aggregateHeader = `# Project Configuration

This file is managed by prism. Each installed package contributes a section
between "# Package: <name>" and "# End Package: <name>" lines; edit outside
those sections only.
`

// StartMarker returns the line that opens name's block.
func StartMarker(name string) string { return "# Package: " + name }

// EndMarker returns the line that closes name's block.
func EndMarker(name string) string { return "# End Package: " + name }

// MergeBlock removes any existing block for name from doc and appends a fresh
// one holding content. Merging the same content twice yields the same document.
func MergeBlock(doc, name, content string) string {
	doc, _ = ExciseBlock(doc, name)
	doc = strings.TrimRight(doc, "\n")

	block := StartMarker(name) + "\n" + strings.Trim(content, "\n") + "\n" + EndMarker(name)
	if doc == "" {
		return block + "\n"
	}
	return doc + "\n\n" + block + "\n"
}

// ExciseBlock removes every complete block for name from doc. Markers are
// matched as whole lines, so a package whose name extends name is never
// touched. A start marker without a matching end marker is left alone.
func ExciseBlock(doc, name string) (string, bool) {
	start, end := StartMarker(name), EndMarker(name)
	lines := strings.Split(doc, "\n")
	removed := false

	for from := 0; ; {
		j := indexLine(lines, end, from)
		if j < 0 {
			break
		}
		i := lastIndexLine(lines[from:j], start)
		if i < 0 {
			// Orphaned end marker.
			from = j + 1
			continue
		}
		i += from

		stop := j + 1
		if (i == 0 || lines[i-1] == "") && stop < len(lines) && lines[stop] == "" && stop+1 < len(lines) {
			stop++
		}
		lines = append(lines[:i:i], lines[stop:]...)
		removed = true
		from = i
	}

	if !removed {
		return doc, false
	}
	out := strings.Join(lines, "\n")
	if strings.HasSuffix(out, "\n\n") {
		out = strings.TrimRight(out, "\n") + "\n"
	}
	return out, true
}

func indexLine(lines []string, want string, from int) int {
	for k := from; k < len(lines); k++ {
		if strings.TrimRight(lines[k], "\r") == want {
			return k
		}
	}
	return -1
}

func lastIndexLine(lines []string, want string) int {
	for k := len(lines) - 1; k >= 0; k-- {
		if strings.TrimRight(lines[k], "\r") == want {
			return k
		}
	}
	return -1
}

// mergeAggregate merges content into the document at p, creating it with a
// header when absent.
func mergeAggregate(p, name, content string) error {
	doc, err := os.ReadFile(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		doc = []byte(aggregateHeader)
	case err != nil:
		return &IOError{Op: "read", Path: p, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &IOError{Op: "create directory", Path: filepath.Dir(p), Err: err}
	}
	merged := MergeBlock(string(doc), name, content)
	if err := os.WriteFile(p, []byte(merged), 0o644); err != nil {
		return &IOError{Op: "write", Path: p, Err: err}
	}
	return nil
}

// exciseAggregate removes name's block from the document at p. A missing
// document or block is not an error.
func exciseAggregate(p, name string) (bool, error) {
	doc, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &IOError{Op: "read", Path: p, Err: err}
	}

	updated, ok := ExciseBlock(string(doc), name)
	if !ok {
		return false, nil
	}
	if err := os.WriteFile(p, []byte(updated), 0o644); err != nil {
		return false, &IOError{Op: "write", Path: p, Err: err}
	}
	return true, nil
}
