// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/prism/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/prism/config.cue on macOS, %APPDATA%\prism\config.cue
// on Windows), validated against the embedded config_schema.cue, and overridden by
// PRISM_* environment variables (PRISM_LOG_LEVEL, PRISM_UI_VERBOSE, ...).
package config
