// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"strings"
	"testing"

	"github.com/prism-cli/prism/pkg/manifest"
)

func TestCheckConflict(t *testing.T) {
	t.Parallel()

	m := &manifest.Manifest{Name: "pkg", Version: "1.0.0"}

	tests := []struct {
		name         string
		installed    string
		wantNil      bool
		wantAlready  bool
		wantUpgrade  bool
		wantContains string
	}{
		{name: "not installed", wantNil: true},
		{name: "same version", installed: "1.0.0", wantAlready: true, wantContains: "already installed"},
		{name: "build metadata ignored", installed: "1.0.0+local", wantAlready: true},
		{name: "older installed", installed: "0.9.0", wantUpgrade: true, wantContains: "upgrade"},
		{name: "newer installed", installed: "2.0.0", wantContains: "downgrade"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckConflict(tt.installed, m)
			if tt.wantNil {
				if err != nil {
					t.Fatalf("CheckConflict() = %v, want nil", err)
				}
				return
			}

			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("CheckConflict() = %v, want *ConflictError", err)
			}
			if got := errors.Is(err, ErrAlreadyInstalled); got != tt.wantAlready {
				t.Errorf("errors.Is(ErrAlreadyInstalled) = %v, want %v", got, tt.wantAlready)
			}
			if conflict.Advisory() == tt.wantAlready {
				t.Errorf("Advisory() = %v, want %v", conflict.Advisory(), !tt.wantAlready)
			}
			if !tt.wantAlready && conflict.Upgrade() != tt.wantUpgrade {
				t.Errorf("Upgrade() = %v, want %v", conflict.Upgrade(), tt.wantUpgrade)
			}
			if tt.wantContains != "" && !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.wantContains)
			}
		})
	}
}
