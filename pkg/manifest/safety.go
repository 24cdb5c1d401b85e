// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrUnsafeHook is the sentinel wrapped by UnsafeHookError.
var ErrUnsafeHook = errors.New("unsafe hook")

// UnsafeHookError is returned when a hook body runs an unconditionally
// destructive command or cannot be parsed as shell.
type UnsafeHookError struct {
	// Command is the offending command as written, when one was found.
	Command string
	Reason  string
}

// Error implements the error interface.
func (e *UnsafeHookError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("hook runs a destructive command %q: %s", e.Command, e.Reason)
	}
	return "hook is not valid shell: " + e.Reason
}

// Unwrap returns ErrUnsafeHook so callers can use errors.Is for programmatic detection.
func (e *UnsafeHookError) Unwrap() error { return ErrUnsafeHook }

// wrapperCommands run their arguments as a command.
var wrapperCommands = []string{"sudo", "doas", "command", "exec", "nohup", "env", "builtin"}

// shellCommands run the script given to -c.
var shellCommands = []string{"sh", "bash", "zsh", "dash", "ksh", "mksh"}

// maxNestedScripts bounds eval and sh -c re-parsing.
const maxNestedScripts = 8

// CheckHookSafety parses body as a shell script and reports the first
// command that would destroy the host: a recursive rm of /, /*, ~ or $HOME,
// mkfs, dd onto a device, a recursive chmod or chown of /, or a fork bomb.
// Quoted text is never mistaken for a command.
//
// Scripts passed to eval or to a shell's -c option are checked the same way.
func CheckHookSafety(body string) error {
	if found := checkScript(body, 0); found != nil {
		return found
	}
	return nil
}

func checkScript(body string, depth int) *UnsafeHookError {
	file, err := syntax.NewParser().Parse(strings.NewReader(body), "hook")
	if err != nil {
		return &UnsafeHookError{Reason: err.Error()}
	}

	var found *UnsafeHookError
	syntax.Walk(file, func(node syntax.Node) bool {
		if found != nil {
			return false
		}
		switch n := node.(type) {
		case *syntax.CallExpr:
			found = checkCall(n, depth)
		case *syntax.FuncDecl:
			if isForkBomb(n) {
				found = &UnsafeHookError{Command: n.Name.Value + "()", Reason: "fork bomb"}
			}
		}
		return found == nil
	})
	return found
}

func checkCall(call *syntax.CallExpr, depth int) *UnsafeHookError {
	args := make([]string, 0, len(call.Args))
	for _, w := range call.Args {
		args = append(args, wordString(w))
	}
	args = stripWrappers(args)
	if len(args) == 0 {
		return nil
	}

	command := strings.Join(args, " ")
	name := path.Base(args[0])
	flags, operands := splitFlags(args[1:])

	if script, ok := nestedScript(name, args[1:]); ok && depth < maxNestedScripts {
		found := checkScript(script, depth+1)
		if found != nil && found.Command != "" {
			return found
		}
		return nil
	}

	switch {
	case name == "rm":
		if hasFlag(flags, 'r', 'R', "--recursive") || slices.Contains(flags, "--no-preserve-root") {
			for _, op := range operands {
				if isHostRoot(op) {
					return &UnsafeHookError{Command: command, Reason: "recursively deletes " + op}
				}
			}
		}
	case name == "mkfs" || strings.HasPrefix(name, "mkfs."):
		return &UnsafeHookError{Command: command, Reason: "formats a filesystem"}
	case name == "dd":
		for _, op := range operands {
			if strings.HasPrefix(op, "of=/dev/") {
				return &UnsafeHookError{Command: command, Reason: "writes to a raw device"}
			}
		}
	case name == "chmod" || name == "chown":
		if hasFlag(flags, 'R', 0, "--recursive") {
			for _, op := range operands {
				if strings.TrimRight(op, "/") == "" || op == "/*" {
					return &UnsafeHookError{Command: command, Reason: "recursively changes ownership or permissions of /"}
				}
			}
		}
	}
	return nil
}

// nestedScript returns the script text run by eval or by a shell's -c option.
func nestedScript(name string, args []string) (string, bool) {
	if name == "eval" {
		return strings.Join(args, " "), len(args) > 0
	}
	if !slices.Contains(shellCommands, name) {
		return "", false
	}
	for i, a := range args {
		if a == "--" || !strings.HasPrefix(a, "-") {
			return "", false
		}
		if !strings.HasPrefix(a, "--") && strings.ContainsRune(a[1:], 'c') && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

// stripWrappers drops leading sudo-like prefixes and their options.
func stripWrappers(args []string) []string {
	for len(args) > 0 && slices.Contains(wrapperCommands, path.Base(args[0])) {
		args = args[1:]
		for len(args) > 0 && (strings.HasPrefix(args[0], "-") || strings.Contains(args[0], "=")) {
			args = args[1:]
		}
	}
	return args
}

func splitFlags(args []string) (flags, operands []string) {
	endOfFlags := false
	for _, a := range args {
		switch {
		case endOfFlags:
			operands = append(operands, a)
		case a == "--":
			endOfFlags = true
		case strings.HasPrefix(a, "-") && len(a) > 1:
			flags = append(flags, a)
		default:
			operands = append(operands, a)
		}
	}
	return flags, operands
}

// hasFlag reports whether flags contain short (or alt) in a bundled short
// option group such as "-rf", or the long form.
func hasFlag(flags []string, short, alt rune, long string) bool {
	for _, f := range flags {
		if f == long {
			return true
		}
		if strings.HasPrefix(f, "--") {
			continue
		}
		if strings.ContainsRune(f[1:], short) || (alt != 0 && strings.ContainsRune(f[1:], alt)) {
			return true
		}
	}
	return false
}

func isHostRoot(target string) bool {
	trimmed := strings.TrimRight(target, "/")
	switch trimmed {
	case "", "/*", "/.", "~", "~/*", "$HOME", "$HOME/*", "${HOME}", "${HOME}/*":
		return true
	}
	return false
}

// wordString renders a word with quotes removed and parameter expansions
// kept in their $NAME form. Command substitutions render as "$(...)".
func wordString(w *syntax.Word) string {
	var sb strings.Builder
	writeParts(&sb, w.Parts)
	return sb.String()
}

func writeParts(sb *strings.Builder, parts []syntax.WordPart) {
	for _, part := range parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			writeParts(sb, p.Parts)
		case *syntax.ParamExp:
			if p.Param == nil {
				sb.WriteString("$?")
				continue
			}
			if p.Short {
				sb.WriteString("$" + p.Param.Value)
			} else {
				sb.WriteString("${" + p.Param.Value + "}")
			}
		default:
			sb.WriteString("$(...)")
		}
	}
}

// isForkBomb reports whether fn calls itself in a pipeline or in the background.
func isForkBomb(fn *syntax.FuncDecl) bool {
	if fn.Name == nil || fn.Body == nil {
		return false
	}
	name := fn.Name.Value
	callsSelf := func(stmt *syntax.Stmt) bool {
		if stmt == nil {
			return false
		}
		call, ok := stmt.Cmd.(*syntax.CallExpr)
		return ok && len(call.Args) > 0 && wordString(call.Args[0]) == name
	}

	bomb := false
	syntax.Walk(fn.Body, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.BinaryCmd:
			if (n.Op == syntax.Pipe || n.Op == syntax.PipeAll) && (callsSelf(n.X) || callsSelf(n.Y)) {
				bomb = true
			}
		case *syntax.Stmt:
			if n.Background && callsSelf(n) {
				bomb = true
			}
		}
		return !bomb
	})
	return bomb
}

func sortedHookEvents(hooks map[HookEvent]string) []HookEvent {
	events := make([]HookEvent, 0, len(hooks))
	for _, ev := range hookEvents {
		if _, ok := hooks[ev]; ok {
			events = append(events, ev)
		}
	}
	var unknown []HookEvent
	for ev := range hooks {
		if !slices.Contains(hookEvents, ev) {
			unknown = append(unknown, ev)
		}
	}
	slices.Sort(unknown)
	return append(events, unknown...)
}

func sortedPrismDeps(deps map[PackageName]SemVerRange) []PackageName {
	names := make([]PackageName, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
