// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/prism-cli/prism/pkg/manifest"
)

const (
	// Extension is the file suffix of package archives.
	Extension = ".tar.gz"

	maxFiles      = 4096
	maxFileBytes  = 64 << 20
	maxTotalBytes = 512 << 20
)

var (
	// ErrEmptyArchive is returned when a created archive has zero bytes.
	ErrEmptyArchive = errors.New("archive is empty")
	// ErrUnsafePath is returned for archive entries that would land outside
	// the extraction directory.
	ErrUnsafePath = errors.New("unsafe archive path")
	// ErrTooLarge is returned when an archive exceeds the extraction limits.
	ErrTooLarge = errors.New("archive exceeds extraction limits")
)

// Entry describes one file stored in an archive.
type Entry struct {
	Name string
	Size int64
	Mode os.FileMode
}

// DefaultFileName returns "<name>-<version>.tar.gz".
func DefaultFileName(m *manifest.Manifest) string {
	return fmt.Sprintf("%s-%s%s", m.Name, m.Version, Extension)
}

// Create writes the files selected by Collect into a gzip-compressed tar at
// outputPath, or DefaultFileName in the working directory when outputPath is
// empty. It returns the absolute archive path. On failure no partial archive
// is left behind.
func Create(sourceDir, outputPath string, m *manifest.Manifest) (archivePath string, err error) {
	files, err := Collect(sourceDir, m)
	if err != nil {
		return "", err
	}

	if outputPath == "" {
		outputPath = DefaultFileName(m)
	}
	absOutputPath, err := filepath.Abs(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absOutputPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeArchive(sourceDir, absOutputPath, files); err != nil {
		_ = os.Remove(absOutputPath)
		return "", err
	}

	info, err := os.Stat(absOutputPath)
	if err != nil {
		return "", fmt.Errorf("archive was not written: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(absOutputPath)
		return "", fmt.Errorf("%w: %s", ErrEmptyArchive, absOutputPath)
	}
	return absOutputPath, nil
}

func writeArchive(sourceDir, outputPath string, files []string) (err error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)
	for _, rel := range files {
		if err := addFile(tw, sourceDir, rel); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

func addFile(tw *tar.Writer, sourceDir, rel string) error {
	p := filepath.Join(sourceDir, filepath.FromSlash(rel))
	// Stat follows symlinks so linked files are stored by content.
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", p, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", rel, err)
	}
	hdr.Name = rel
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", rel, err)
	}

	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// List returns the regular-file entries of the archive at archivePath in
// stored order.
func List(archivePath string) ([]Entry, error) {
	var entries []Entry
	err := walkArchive(archivePath, func(hdr *tar.Header, _ io.Reader) error {
		if hdr.Typeflag == tar.TypeReg {
			entries = append(entries, Entry{Name: hdr.Name, Size: hdr.Size, Mode: hdr.FileInfo().Mode().Perm()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Extract unpacks the archive at archivePath into destDir and returns the
// package root: destDir itself when the manifest sits at the top, or the
// single top-level directory holding it. Permission bits are restored.
// Entries that escape destDir, links and oversized archives are rejected.
func Extract(archivePath, destDir string) (string, error) {
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	if err := os.MkdirAll(absDest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	var (
		count int
		total int64
	)
	err = walkArchive(archivePath, func(hdr *tar.Header, r io.Reader) error {
		target, err := safeJoin(absDest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			return os.MkdirAll(target, 0o755)
		case tar.TypeReg:
			count++
			if count > maxFiles {
				return fmt.Errorf("%w: more than %d files", ErrTooLarge, maxFiles)
			}
			if hdr.Size < 0 || hdr.Size > maxFileBytes {
				return fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, hdr.Name, hdr.Size)
			}
			total += hdr.Size
			if total > maxTotalBytes {
				return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxTotalBytes)
			}
			return extractFile(r, target, hdr)
		case tar.TypeSymlink, tar.TypeLink:
			return fmt.Errorf("%w: link entry %s", ErrUnsafePath, hdr.Name)
		default:
			return nil
		}
	})
	if err != nil {
		return "", err
	}
	return findPackageRoot(absDest)
}

func extractFile(r io.Reader, target string, hdr *tar.Header) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	perm := hdr.FileInfo().Mode().Perm()
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if _, err := io.CopyN(out, r, hdr.Size); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to extract %s: %w", hdr.Name, err)
	}
	return out.Chmod(perm)
}

func walkArchive(archivePath string, fn func(*tar.Header, io.Reader) error) (err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar stream: %w", err)
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

func safeJoin(base, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	if clean == "." || clean == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	if filepath.IsAbs(clean) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: absolute path %s", ErrUnsafePath, name)
	}
	target := filepath.Join(base, clean)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func findPackageRoot(dir string) (string, error) {
	if _, err := manifest.Find(dir); err == nil {
		return dir, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		sub := filepath.Join(dir, entries[0].Name())
		if _, err := manifest.Find(sub); err == nil {
			return sub, nil
		}
	}
	return "", fmt.Errorf("%w in archive", manifest.ErrManifestNotFound)
}
