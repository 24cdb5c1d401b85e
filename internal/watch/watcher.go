// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when a package's source tree changes.
//
// It backs `prism dev`: every directory under the package root is registered
// with fsnotify, events are filtered through the package's structure sources
// and ignore list, and bursts of events are coalesced so the callback (a
// re-install) fires once per quiet period with the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/prism-cli/prism/internal/logging"
	"github.com/prism-cli/prism/pkg/manifest"
)

// defaultDebounce gives editors time to finish write-then-rename sequences.
const defaultDebounce = 300 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// defaultIgnores never trigger a re-install.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// PackageDir is the package root to watch. Empty means the working directory.
		PackageDir string

		// Patterns are doublestar globs, relative to PackageDir, selecting the
		// files that trigger the callback. Empty watches every non-ignored file.
		Patterns []string

		// Ignore is merged with the built-in ignores.
		Ignore []string

		// Debounce is the quiet period after the last event. Zero or negative
		// values use defaultDebounce.
		Debounce time.Duration

		// OnChange receives the changed paths relative to PackageDir, sorted.
		OnChange func(ctx context.Context, changed []string) error

		Logger *log.Logger
	}

	// Watcher monitors a package tree. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}
)

// ForPackage builds a Config that watches what m installs: the manifest
// itself and every structure item source, minus m's ignore list. Patterns are
// computed once; a manifest edit that adds a new source needs a restart.
func ForPackage(dir string, m *manifest.Manifest) Config {
	return Config{
		PackageDir: dir,
		Patterns:   PatternsFor(m),
		Ignore:     IgnoresFor(m),
	}
}

// PatternsFor returns watch patterns for the manifest and structure sources.
// A source at the package root makes the whole tree relevant, in which case
// nil is returned.
func PatternsFor(m *manifest.Manifest) []string {
	patterns := []string{manifest.FileName, manifest.AltFileName}
	for _, e := range m.Entries() {
		src := path.Clean(filepath.ToSlash(e.Item.Source))
		if src == "." || src == "" {
			return nil
		}
		patterns = append(patterns, src, src+"/**")
	}
	slices.Sort(patterns)
	return slices.Compact(patterns)
}

// IgnoresFor converts manifest ignore entries to doublestar patterns. An entry
// without a slash matches that name at any depth.
func IgnoresFor(m *manifest.Manifest) []string {
	var out []string
	for _, entry := range m.Ignore {
		entry = strings.TrimSuffix(filepath.ToSlash(entry), "/")
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			entry = strings.TrimPrefix(entry, "/")
			out = append(out, entry, entry+"/**")
			continue
		}
		out = append(out, "**/"+entry, "**/"+entry+"/**")
	}
	return out
}

// New resolves the package directory, validates every pattern and registers
// all non-ignored directories with fsnotify.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.PackageDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve package directory: %w", err)
	}

	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		logger:   logger,
		debounce: debounce,
		baseDir:  absBase,
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close after init failure", "err", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when fsnotify breaks for good.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire runs on the timer goroutine. A callback still in progress defers
	// the batch by one debounce period instead of running concurrently.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("previous run still in progress, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.logger.Info("change detected", "files", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("callback failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify", "err", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			rel = filepath.ToSlash(rel)

			if w.isIgnored(rel) {
				continue
			}

			// New directories are registered before pattern filtering so a
			// source directory created after startup is still followed.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			if !w.matchesPatterns(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// addDirectories registers every non-ignored directory below the package
// root. Unreadable directories are skipped with a warning.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(p string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "err", walkDirErr)
			return nil //nolint:nilerr // inaccessible paths are not watched
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, p)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable for paths produced by WalkDir
		}
		if rel != "." && w.isIgnoredDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(p); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk package tree: %w", walkErr)
	}
	return nil
}

func (w *Watcher) maybeAddDir(p string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, p)
	if err != nil || w.isIgnoredDir(filepath.ToSlash(rel)) {
		return
	}
	if addErr := w.fsw.Add(p); addErr != nil {
		w.logger.Warn("add new directory", "path", p, "err", addErr)
	}
}

func (w *Watcher) isIgnoredDir(rel string) bool {
	return w.isIgnored(rel) || w.isIgnored(rel+"/")
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// matchesPatterns reports whether rel is selected. No patterns selects everything.
func (w *Watcher) matchesPatterns(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, err)
		}
	}
	return nil
}
