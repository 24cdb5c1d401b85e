// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyFile copies src to dst, creating parent directories and applying src's
// permission bits to dst. The content is written to a temporary file beside
// dst and renamed into place, so an existing read-only dst is replaced and
// readers never see a partial file. Repeating the copy produces the same
// result.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return &IOError{Op: "open", Path: src, Err: err}
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return &IOError{Op: "stat", Path: src, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &IOError{Op: "copy", Path: src, Err: fmt.Errorf("not a regular file")}
	}
	perm := info.Mode().Perm()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "create directory", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return &IOError{Op: "create", Path: dst, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return &IOError{Op: "copy", Path: dst, Err: err}
	}
	// CreateTemp always uses 0600.
	if err := tmp.Chmod(perm); err != nil {
		return &IOError{Op: "chmod", Path: dst, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: dst, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return &IOError{Op: "rename", Path: dst, Err: err}
	}
	return nil
}
