// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrManifestNotFound is returned when a package root has no manifest file.
var ErrManifestNotFound = errors.New("manifest not found")

// Parse decodes, normalizes and validates a manifest document.
func Parse(data []byte, filename string) (*Manifest, error) {
	m, err := Decode(data, filename)
	if err != nil {
		return nil, err
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Find returns the manifest path inside the package root dir.
func Find(dir string) (string, error) {
	for _, name := range []string{FileName, AltFileName} {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %s: %w", p, err)
		}
	}
	return "", fmt.Errorf("%w in %s (expected %s)", ErrManifestNotFound, dir, FileName)
}

// Load reads and parses the manifest of the package rooted at dir.
func Load(dir string) (*Manifest, error) {
	p, err := Find(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, p)
}

// LoadUnvalidated reads and decodes the manifest at dir without running the
// semantic checks, so callers can stage validation themselves.
func LoadUnvalidated(dir string) (*Manifest, error) {
	p, err := Find(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Decode(data, p)
}
