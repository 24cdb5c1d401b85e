// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prism-cli/prism/internal/testutil"
	"github.com/prism-cli/prism/pkg/manifest"
)

func startWatcher(t *testing.T, cfg Config) (cancel func()) {
	t.Helper()

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancelCtx := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the event loop time to start.
	time.Sleep(50 * time.Millisecond)

	return func() {
		cancelCtx()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run() did not return after context cancellation")
		}
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{})

	stop := startWatcher(t, Config{
		PackageDir: dir,
		Debounce:   100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			if calls == 1 {
				close(done)
			}
			return nil
		},
	})

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		testutil.WriteFile(t, filepath.Join(dir, name), "data", 0o644)
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(200 * time.Millisecond)
	stop()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}
	for _, want := range []string{"a.md", "b.md", "c.md"} {
		if !slices.Contains(collected, want) {
			t.Errorf("expected %q in changed files, got %v", want, collected)
		}
	}
}

func TestWatcherForPackage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, "commands", "core"), 0o755)
	testutil.MustMkdirAll(t, filepath.Join(dir, "node_modules", "dep"), 0o755)

	m := manifest.Normalize(&manifest.Manifest{
		Name:    "demo",
		Version: "1.0.0",
		Structure: []manifest.StructureSection{
			{Type: manifest.StructureCommands, Items: []manifest.StructureItem{{Source: "commands", Dest: ".claude/commands/{name}"}}},
		},
	})

	fired := make(chan []string, 10)
	cfg := ForPackage(dir, m)
	cfg.Debounce = 50 * time.Millisecond
	cfg.OnChange = func(_ context.Context, changed []string) error {
		fired <- changed
		return nil
	}
	stop := startWatcher(t, cfg)
	defer stop()

	// Neither of these is part of the package.
	testutil.WriteFile(t, filepath.Join(dir, "notes.txt"), "x", 0o644)
	testutil.WriteFile(t, filepath.Join(dir, "node_modules", "dep", "index.js"), "x", 0o644)
	time.Sleep(200 * time.Millisecond)

	testutil.WriteFile(t, filepath.Join(dir, "commands", "core", "basic.md"), "# basic", 0o644)

	select {
	case changed := <-fired:
		want := []string{"commands/core/basic.md"}
		if !slices.Equal(changed, want) {
			t.Errorf("changed = %v, want %v", changed, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback on a source file")
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fired := make(chan []string, 10)

	stop := startWatcher(t, Config{
		PackageDir: dir,
		Patterns:   []string{"scripts/**"},
		Debounce:   50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			fired <- changed
			return nil
		},
	})
	defer stop()

	testutil.MustMkdirAll(t, filepath.Join(dir, "scripts"), 0o755)
	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, filepath.Join(dir, "scripts", "run.sh"), "echo hi", 0o755)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-fired:
			if slices.Contains(changed, "scripts/run.sh") {
				return
			}
		case <-deadline:
			t.Fatal("file in a directory created after startup was not seen")
		}
	}
}

func TestWatcherSkipIfBusy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu      sync.Mutex
		calls   int
		active  int
		overlap bool
	)
	firstCallDone := make(chan struct{})

	stop := startWatcher(t, Config{
		PackageDir: dir,
		Debounce:   50 * time.Millisecond,
		OnChange: func(_ context.Context, _ []string) error {
			mu.Lock()
			calls++
			callNum := calls
			active++
			if active > 1 {
				overlap = true
			}
			mu.Unlock()

			if callNum == 1 {
				time.Sleep(300 * time.Millisecond)
				close(firstCallDone)
			}

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		},
	})

	testutil.WriteFile(t, filepath.Join(dir, "first.md"), "1", 0o644)
	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, filepath.Join(dir, "second.md"), "2", 0o644)

	select {
	case <-firstCallDone:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first callback")
	}
	time.Sleep(200 * time.Millisecond)
	stop()

	mu.Lock()
	defer mu.Unlock()
	if overlap {
		t.Error("callbacks ran concurrently")
	}
	if calls > 2 {
		t.Errorf("expected at most 2 callback invocations, got %d", calls)
	}
}

func TestWatcherContextCancel(t *testing.T) {
	t.Parallel()

	stop := startWatcher(t, Config{PackageDir: t.TempDir(), Debounce: 50 * time.Millisecond})
	stop()
}

func TestWatcherDoubleRun(t *testing.T) {
	t.Parallel()

	w, err := New(Config{PackageDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("first Run() returned error: %v", err)
	}
}

func TestWatcherInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New(Config{PackageDir: t.TempDir(), Patterns: []string{"[invalid"}})
	if err == nil {
		t.Fatal("New() should reject an invalid glob pattern")
	}
	if !strings.Contains(err.Error(), "invalid watch pattern") {
		t.Errorf("error should mention the invalid watch pattern, got: %v", err)
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		ignored bool
	}{
		{".git/config", true},
		{"node_modules/express/index.js", true},
		{"commands/basic.md.swp", true},
		{"backup~", true},
		{".DS_Store", true},
		{"commands/.DS_Store", true},
		{"commands/basic.md", false},
		{".gitignore", false},
	}

	ignores := DefaultIgnores()
	for _, tt := range tests {
		if got := matchAny(ignores, tt.path); got != tt.ignored {
			t.Errorf("default ignore of %q = %v, want %v", tt.path, got, tt.ignored)
		}
	}
}

func TestPatternsFor(t *testing.T) {
	t.Parallel()

	m := manifest.Normalize(&manifest.Manifest{
		Name:    "demo",
		Version: "1.0.0",
		Structure: []manifest.StructureSection{
			{Type: manifest.StructureCommands, Items: []manifest.StructureItem{{Source: "commands/", Dest: "x/{name}"}}},
			{Type: manifest.StructureClaudeConfig, Items: []manifest.StructureItem{{Source: "demo.md", Dest: ".claude/CLAUDE.md"}}},
		},
	})

	got := PatternsFor(m)
	for _, p := range []string{"prism-package.yaml", "commands", "commands/**", "demo.md"} {
		if !slices.Contains(got, p) {
			t.Errorf("PatternsFor() = %v, missing %q", got, p)
		}
	}
	if !matchAny(got, "commands/core/basic.md") || matchAny(got, "notes.txt") {
		t.Errorf("PatternsFor() = %v selects the wrong files", got)
	}

	m.Structure[0].Items[0].Source = "."
	if got := PatternsFor(m); got != nil {
		t.Errorf("PatternsFor() with a root source = %v, want nil", got)
	}
}

func TestIgnoresFor(t *testing.T) {
	t.Parallel()

	m := &manifest.Manifest{Ignore: []string{"node_modules", "build/tmp/", ""}}
	ignores := IgnoresFor(m)

	tests := []struct {
		path    string
		ignored bool
	}{
		{"node_modules", true},
		{"a/node_modules/x.js", true},
		{"build/tmp", true},
		{"build/tmp/out.md", true},
		{"other/build/tmp/out.md", false},
		{"commands/basic.md", false},
	}
	for _, tt := range tests {
		if got := matchAny(ignores, tt.path); got != tt.ignored {
			t.Errorf("IgnoresFor() on %q = %v, want %v", tt.path, got, tt.ignored)
		}
	}
}
