// SPDX-License-Identifier: MPL-2.0

// Package logging builds the CLI's charmbracelet/log loggers.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// DefaultPrefix is the prefix of every CLI log line.
const DefaultPrefix = "prism"

// New returns a logger writing to w at level. An unknown level falls back to
// warn; an empty prefix uses DefaultPrefix.
func New(w io.Writer, level, prefix string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  lvl,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
