// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prism-cli/prism/internal/issue"
	"github.com/prism-cli/prism/pkg/archive"
)

func newPackageCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		output string
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "package [dir]",
		Short: "Build a distributable package archive",
		Long: `Build a gzip-compressed tar archive of a package.

The archive holds the manifest, every file selected by the structure
declarations, and README, LICENSE and CHANGELOG files at the package root.
Entries matching the manifest's ignore list are left out.

Examples:
  prism package
  prism package ./my-package -o dist/my-package.tar.gz
  prism package ./my-package --list`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default: <name>-<version>.tar.gz)")
	cmd.Flags().BoolVar(&list, "list", false, "list the files that would be archived and exit")

	cmd.RunE = app.runE(flags, func(cmd *cobra.Command, args []string) error {
		dir, err := packageDir(args)
		if err != nil {
			return err
		}
		m, err := loadPackage(dir)
		if err != nil {
			return err
		}

		if list {
			files, coverage, err := archive.Inspect(dir, m)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(app.stdout, f)
			}
			printIssues(app.stderr, coverage)
			return nil
		}

		archivePath, err := archive.Create(dir, output, m)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("package").
				WithResource(m.ID()).
				Wrap(err).
				Build()
		}
		info, err := os.Stat(archivePath)
		if err != nil {
			return fmt.Errorf("failed to stat archive: %w", err)
		}

		fmt.Fprintf(app.stdout, "%s Packaged %s\n", successIcon, CmdStyle.Render(m.ID()))
		fmt.Fprintf(app.stdout, "%s Output: %s\n", infoIcon, archivePath)
		fmt.Fprintf(app.stdout, "%s Size: %s\n", infoIcon, formatFileSize(info.Size()))
		return nil
	})
	return cmd
}

func newUnpackCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		dest string
		list bool
	)

	cmd := &cobra.Command{
		Use:   "unpack <archive>",
		Short: "Extract a package archive",
		Long: `Extract a package archive and check the manifest it contains.

Entries that would land outside the destination, links and archives over
the size limits are rejected.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&dest, "dir", "d", ".", "destination directory")
	cmd.Flags().BoolVar(&list, "list", false, "list the archive's files instead of extracting")

	cmd.RunE = app.runE(flags, func(cmd *cobra.Command, args []string) error {
		archivePath := args[0]

		if list {
			entries, err := archive.List(archivePath)
			if err != nil {
				return archiveError(archivePath, err)
			}
			for _, e := range entries {
				fmt.Fprintf(app.stdout, "%s %10s  %s\n", e.Mode, formatFileSize(e.Size), e.Name)
			}
			return nil
		}

		root, err := archive.Extract(archivePath, dest)
		if err != nil {
			return archiveError(archivePath, err)
		}
		m, err := loadPackage(root)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.stdout, "%s Unpacked %s into %s\n", successIcon, CmdStyle.Render(m.ID()), root)
		return nil
	})
	return cmd
}

func archiveError(archivePath string, err error) error {
	return issue.NewErrorContext().
		WithOperation("read archive").
		WithResource(archivePath).
		WithIssue(issue.ArchiveInvalidId).
		Wrap(err).
		Build()
}

// formatFileSize renders a byte count with a binary unit.
func formatFileSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(GB))
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(MB))
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
