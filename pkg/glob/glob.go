// SPDX-License-Identifier: MPL-2.0

// Package glob implements the path pattern language used by package manifests.
//
// Patterns are matched against forward-slash relative paths and are anchored:
//
//   - "**/" matches zero or more leading path segments
//   - "**" matches any sequence of characters, separators included
//   - "*" matches any sequence of characters except "/"
//   - "?" matches exactly one character except "/"
//
// Every other character, including regular-expression metacharacters and
// bracket expressions, is matched literally. "**" and "**/*" match everything.
package glob

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheSize bounds the number of compiled patterns kept in memory.
const cacheSize = 512

var compiled *lru.Cache[string, *regexp.Regexp]

func init() {
	var err error
	compiled, err = lru.New[string, *regexp.Regexp](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("glob: create pattern cache: %v", err))
	}
}

// Selector is anything that carries include and exclude pattern lists,
// such as a manifest variant.
type Selector interface {
	IncludePatterns() []string
	ExcludePatterns() []string
}

// IsMatchAll reports whether pattern matches every path.
func IsMatchAll(pattern string) bool {
	return pattern == "**" || pattern == "**/*"
}

// Translate converts a glob pattern into an anchored regular expression source.
//
// Literal runs are escaped first; then "**/", "**", "*" and "?" are substituted
// in that order, so a substituted token is never re-read as a glob.
func Translate(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")

	for i := 0; i < len(pattern); {
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			sb.WriteString("(?:.*/)?")
			i += 3
		case strings.HasPrefix(pattern[i:], "**"):
			sb.WriteString(".*")
			i += 2
		case pattern[i] == '*':
			sb.WriteString("[^/]*")
			i++
		case pattern[i] == '?':
			sb.WriteString("[^/]")
			i++
		default:
			j := i
			for j < len(pattern) && pattern[j] != '*' && pattern[j] != '?' {
				j++
			}
			sb.WriteString(regexp.QuoteMeta(pattern[i:j]))
			i = j
		}
	}

	sb.WriteString("$")
	return sb.String()
}

// Compile returns the compiled expression for pattern, reusing cached results.
func Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := compiled.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(Translate(pattern))
	if err != nil {
		return nil, fmt.Errorf("glob: compile %q: %w", pattern, err)
	}
	compiled.Add(pattern, re)
	return re, nil
}

// Match reports whether the slash-normalized path matches pattern.
func Match(p, pattern string) bool {
	if IsMatchAll(pattern) {
		return true
	}
	re, err := Compile(pattern)
	if err != nil {
		// Translate escapes every literal, so compilation cannot fail in practice.
		return false
	}
	return re.MatchString(normalize(p))
}

// MatchAny reports whether p matches at least one of patterns.
func MatchAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if Match(p, pattern) {
			return true
		}
	}
	return false
}

// Select keeps the files matching pattern and none of exclude. Order is preserved.
func Select(files []string, pattern string, exclude []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if Match(f, pattern) && !MatchAny(f, exclude) {
			out = append(out, f)
		}
	}
	return out
}

// FilterByVariant keeps the files that belong to the selector. Each file is
// tested as path.Join(prefix, file) so selector patterns are relative to the
// package root rather than to a structure item's own tree. A file survives if
// it matches at least one include pattern and no exclude pattern; output order
// follows input order.
func FilterByVariant(files []string, s Selector, prefix string) []string {
	include := s.IncludePatterns()
	exclude := s.ExcludePatterns()

	out := make([]string, 0, len(files))
	for _, f := range files {
		full := Join(prefix, f)
		if !MatchAny(full, include) {
			continue
		}
		if MatchAny(full, exclude) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Join joins a source prefix and a relative file the way FilterByVariant does.
func Join(prefix, file string) string {
	prefix = normalize(prefix)
	file = normalize(file)
	if prefix == "" || prefix == "." {
		return file
	}
	return path.Join(prefix, file)
}

// Walk lists every regular file below dir as a slash-separated path relative
// to dir, sorted lexically. Symlinks to files are included; directories
// reached through symlinks are not descended.
func Walk(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(p)
			if statErr != nil || info.IsDir() {
				return nil //nolint:nilerr // dangling or directory symlinks are skipped
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return fmt.Errorf("relative path for %s: %w", p, relErr)
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(p, "./")
}
