// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"testing"
)

func TestCheckHookSafety(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		unsafe bool
	}{
		{"echo", `echo "installed"`, false},
		{"empty", ``, false},
		{"local cleanup", `rm -rf ./build`, false},
		{"tmp cleanup", `rm -rf /tmp/prism-cache`, false},
		{"quoted text is not a command", `echo "rm -rf /"`, false},
		{"non-recursive rm of root file", `rm -f /etc/motd`, false},
		{"chmod of a subtree", `chmod -R 755 ./scripts`, false},
		{"dd to a file", `dd if=/dev/zero of=./disk.img bs=1M count=1`, false},
		{"rm rf root", `rm -rf /`, true},
		{"rm fr root glob", `rm -fr /*`, true},
		{"rm long flags home", `rm --recursive --force ~`, true},
		{"rm home var", `rm -r "$HOME"`, true},
		{"rm braced home var", `rm -rf ${HOME}/`, true},
		{"no preserve root", `rm --no-preserve-root -f /`, true},
		{"sudo prefix", `sudo -n rm -rf /`, true},
		{"absolute rm path", `/bin/rm -Rf /`, true},
		{"inside a condition", `if true; then rm -rf /; fi`, true},
		{"after other commands", "echo start\nrm -rf / && echo done", true},
		{"mkfs", `mkfs.ext4 /dev/sda1`, true},
		{"dd to device", `dd if=/dev/zero of=/dev/sda`, true},
		{"chown root", `chown -R nobody /`, true},
		{"fork bomb", `:(){ :|:& };:`, true},
		{"named fork bomb", `bomb() { bomb | bomb & }; bomb`, true},
		{"unparseable", `if then fi (`, true},
		{"sh -c", `sh -c 'rm -rf /'`, true},
		{"bash -c double quoted", `bash -c "rm -rf /"`, true},
		{"bash -ec bundled", `bash -ec 'echo hi; rm -rf ~'`, true},
		{"eval", `eval 'rm -rf /'`, true},
		{"eval split words", `eval rm -rf /`, true},
		{"nested sh in eval", `eval "sh -c 'mkfs.ext4 /dev/sda1'"`, true},
		{"sudo sh -c", `sudo sh -c "dd if=/dev/zero of=/dev/sda"`, true},
		{"sh -c harmless", `sh -c 'rm -rf ./build'`, false},
		{"sh running a script file", `sh ./setup.sh`, false},
		{"eval harmless", `eval "echo done"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckHookSafety(tt.body)
			if (err != nil) != tt.unsafe {
				t.Fatalf("CheckHookSafety(%q) error = %v, unsafe %v", tt.body, err, tt.unsafe)
			}
			if err != nil && !errors.Is(err, ErrUnsafeHook) {
				t.Errorf("error should wrap ErrUnsafeHook, got %v", err)
			}
		})
	}
}
