// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level     string
		wantInfo  bool
		wantWarn  bool
		wantDebug bool
	}{
		{"debug", true, true, true},
		{"info", true, true, false},
		{"warn", false, true, false},
		{"error", false, false, false},
		{"bogus", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := New(&buf, tt.level, "")
			logger.Debug("debug-line")
			logger.Info("info-line")
			logger.Warn("warn-line", "package", "demo")

			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info-line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "warn-line"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.wantWarn)
			}
			if tt.wantWarn && !strings.Contains(out, DefaultPrefix) {
				t.Errorf("output %q should carry the %q prefix", out, DefaultPrefix)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	// Must not panic.
	Discard().Error("dropped")
}
