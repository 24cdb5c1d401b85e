// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	ManifestInvalidId
	VariantNotFoundId
	SourceNotFoundId
	AlreadyInstalledId
	NoFilesToPackageId
	ArchiveInvalidId
	UnsafeHookId
	HookFailedId
	ConfigLoadFailedId
	PermissionDeniedId
	DependenciesNotSatisfiedId
	CommandNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal Markdown with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	catalog = []*Issue{
		{
			id: ManifestNotFoundId,
			mdMsg: `
# No package manifest found!

A package root must contain a ` + "`prism-package.yaml`" + ` (or ` + "`.yml`" + `) file.

## Things you can try:
- Create a new package skeleton:
~~~
$ prism init my-package
~~~

- Or point the command at the package directory:
~~~
$ prism validate ./path/to/package
~~~`,
		},
		{
			id: ManifestParseErrorId,
			mdMsg: `
# Failed to parse the package manifest!

The manifest is not valid YAML or does not have the expected shape.

## Common issues:
- Tabs used for indentation
- A list written where a mapping is expected (` + "`structure`" + `, ` + "`variants`" + `, ` + "`hooks`" + `)
- Unknown structure type or hook event names

## Example of a valid manifest:
~~~yaml
name: my-package
version: 1.0.0
description: Useful commands
structure:
  commands:
    - source: commands
      dest: .claude/commands/{name}
~~~`,
		},
		{
			id: ManifestInvalidId,
			mdMsg: `
# The package manifest is invalid!

The manifest parsed, but one or more fields break the manifest rules.

## Things you can try:
- Run the validator to see every problem at once:
~~~
$ prism validate
~~~

- Package names use lowercase letters, digits, ` + "`-`" + ` and ` + "`_`" + `
- Versions are strict semantic versions such as ` + "`1.2.3`" + `
- Every structure item needs both ` + "`source`" + ` and ` + "`dest`",
		},
		{
			id: VariantNotFoundId,
			mdMsg: `
# Variant not found!

The requested variant is not declared in the manifest, so the first declared
variant was installed instead.

## Things you can try:
- List the variants of a package:
~~~
$ prism info ./path/to/package
~~~`,
		},
		{
			id: SourceNotFoundId,
			mdMsg: `
# Structure source not found!

A structure item points at a ` + "`source`" + ` that does not exist in the package.
The item was skipped; the rest of the package was installed.

## Things you can try:
- Check the spelling of the ` + "`source`" + ` path
- Remember that sources are relative to the package root`,
		},
		{
			id: AlreadyInstalledId,
			mdMsg: `
# Package already installed!

This version of the package is already installed in the project.

## Things you can try:
- Reinstall over the existing files:
~~~
$ prism install --force ./path/to/package
~~~

- Or remove it first:
~~~
$ prism uninstall ./path/to/package
~~~`,
		},
		{
			id: NoFilesToPackageId,
			mdMsg: `
# No files to package!

Nothing in the package directory matched the manifest's structure declarations.
Empty archives are never created.

## Things you can try:
- Check that each structure ` + "`source`" + ` exists
- Check that ` + "`pattern`" + `, ` + "`exclude`" + ` and ` + "`ignore`" + ` do not filter everything out`,
		},
		{
			id: ArchiveInvalidId,
			mdMsg: `
# Invalid package archive!

The archive could not be read, contains unsafe paths, exceeds the extraction
limits, or has no manifest at its root.

## Things you can try:
- Rebuild the archive with ` + "`prism package`" + `
- Inspect its contents:
~~~
$ tar tzf my-package-1.0.0.tar.gz
~~~`,
		},
		{
			id: UnsafeHookId,
			mdMsg: `
# Unsafe lifecycle hook!

A hook in the manifest contains a command that could destroy the host system,
such as removing the root or home directory.

## Things you can try:
- Restrict destructive commands to paths inside the project
- Remove the hook if it is not needed`,
		},
		{
			id: HookFailedId,
			mdMsg: `
# Lifecycle hook failed!

A hook script exited with a non-zero status.

## Things you can try:
- Run with verbose mode for more details:
~~~
$ prism --verbose install ./path/to/package
~~~

- Skip hooks for this run:
~~~
$ prism install --no-hooks ./path/to/package
~~~`,
		},
		{
			id: ConfigLoadFailedId,
			mdMsg: `
# Failed to load configuration!

Could not load the prism configuration file.

## Configuration file locations:
- Linux: ~/.config/prism/config.cue
- macOS: ~/Library/Application Support/prism/config.cue
- Windows: %APPDATA%\prism\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ prism config init
~~~

- Remove the config file to use defaults

## Example configuration:
~~~cue
aggregate_file: ".claude/CLAUDE.md"
default_variant: ""
run_hooks: true
strict: false
log_level: "warn"

ui: {
  verbose: false
  color_scheme: "auto"
}
~~~`,
		},
		{
			id: PermissionDeniedId,
			mdMsg: `
# Permission denied!

You don't have permission to write to the project or read the package.

## Things you can try:
- Check file and directory permissions
- Run prism from a directory you own`,
		},
		{
			id: DependenciesNotSatisfiedId,
			mdMsg: `
# Dependencies not satisfied!

The package declares dependencies that are missing from this system or project.

## Things you can try:
- Install the missing tools listed above
- Check that the tools are in your PATH
- Install the required prism packages first`,
		},
		{
			id: CommandNotFoundId,
			mdMsg: `
# Command not found!

## Things you can try:
- List the available commands:
~~~
$ prism --help
~~~`,
		},
	}

	issues = index(catalog)
)

func index(list []*Issue) map[Id]*Issue {
	m := make(map[Id]*Issue, len(list))
	for _, i := range list {
		m[i.id] = i
	}
	return m
}

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.Clone(catalog)
}

func Get(id Id) *Issue {
	return issues[id]
}
