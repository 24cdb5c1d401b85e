// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/pkg/manifest"
)

const infoWordWrap = 100

func newInfoCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "info [dir]",
		Short: "Describe a package",
		Long: `Describe a package: metadata, structure, variants, dependencies and hooks.

Output is rendered Markdown; --raw prints the Markdown source.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown without rendering")

	cmd.RunE = app.runE(flags, func(cmd *cobra.Command, args []string) error {
		dir, err := packageDir(args)
		if err != nil {
			return err
		}
		m, err := loadPackage(dir)
		if err != nil {
			return err
		}

		md := packageMarkdown(m)
		if raw {
			fmt.Fprint(app.stdout, md)
			return nil
		}

		style := glamourStyle(flags.config().UI.ColorScheme.String())
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(infoWordWrap)}
		if style == "auto" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(style))
		}
		renderer, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		out, err := renderer.Render(md)
		if err != nil {
			return fmt.Errorf("failed to render package info: %w", err)
		}
		fmt.Fprint(app.stdout, out)
		return nil
	})
	return cmd
}

// packageMarkdown describes m as a Markdown document.
func packageMarkdown(m *manifest.Manifest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s %s\n\n", m.Name, m.Version)
	if m.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", m.Description)
	}

	meta := [][2]string{
		{"Author", m.Author},
		{"License", m.License},
		{"Repository", m.Repository},
		{"Homepage", m.Homepage},
		{"Keywords", strings.Join(m.Keywords, ", ")},
	}
	if m.PlatformCompat != nil {
		meta = append(meta, [2]string{"Compatible with", compatRange(m.PlatformCompat)})
	}
	for _, kv := range meta {
		if kv[1] != "" {
			fmt.Fprintf(&sb, "- **%s:** %s\n", kv[0], kv[1])
		}
	}

	sb.WriteString("\n## Structure\n\n")
	if len(m.Structure) == 0 {
		sb.WriteString("_No structure declared._\n")
	} else {
		sb.WriteString("| Type | Source | Destination | Pattern |\n|---|---|---|---|\n")
		for _, e := range m.Entries() {
			fmt.Fprintf(&sb, "| %s | `%s` | `%s` | `%s` |\n", e.Type, e.Item.Source, e.Item.Dest, e.Item.Pattern)
		}
	}

	sb.WriteString("\n## Variants\n\n")
	for i, v := range m.Variants {
		marker := ""
		if i == 0 {
			marker = " (default)"
		}
		fmt.Fprintf(&sb, "- **%s**%s", v.Name, marker)
		if v.Description != "" {
			fmt.Fprintf(&sb, ": %s", v.Description)
		}
		sb.WriteString("\n")
	}

	if len(m.Dependencies.System) > 0 || len(m.Dependencies.Prism) > 0 {
		sb.WriteString("\n## Dependencies\n\n")
		for _, d := range m.Dependencies.System {
			req := "required"
			if !d.IsRequired() {
				req = "optional"
			}
			fmt.Fprintf(&sb, "- `%s` (%s", d.Name, req)
			if d.Version != "" {
				fmt.Fprintf(&sb, ", %s", d.Version)
			}
			sb.WriteString(")\n")
		}
		names := make([]string, 0, len(m.Dependencies.Prism))
		for name := range m.Dependencies.Prism {
			names = append(names, string(name))
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "- package `%s` %s\n", name, m.Dependencies.Prism[manifest.PackageName(name)])
		}
	}

	if len(m.Hooks) > 0 {
		sb.WriteString("\n## Hooks\n\n")
		for _, event := range manifest.HookEvents() {
			if body, ok := m.Hooks[event]; ok {
				fmt.Fprintf(&sb, "### %s\n\n```sh\n%s\n```\n\n", event, strings.TrimRight(body, "\n"))
			}
		}
	}

	return sb.String()
}

func compatRange(c *manifest.PlatformCompat) string {
	switch {
	case c.MinVersion != "" && c.MaxVersion != "":
		return fmt.Sprintf(">=%s <=%s", c.MinVersion, c.MaxVersion)
	case c.MinVersion != "":
		return ">=" + string(c.MinVersion)
	case c.MaxVersion != "":
		return "<=" + string(c.MaxVersion)
	}
	return ""
}
