// ABOUTME: Export command: write a saved conversation as json, yaml, md or html
// ABOUTME: Writes to stdout unless --out names a file or directory

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/bloop-answer/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a saved conversation",
		Long: fmt.Sprintf(`Export a saved conversation in one of: %s.

Without --out the result goes to stdout. When --out is an existing directory
the file is named conversation-<id>.<ext> inside it.`, strings.Join(export.Formats(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			exporter, err := export.NewExporter(format)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			conv, err := s.LoadConversation(cmd.Context(), a.cfg.Server.UserID, id)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return exporter.Export(conv, cmd.OutOrStdout())
			}

			path := out
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				path = filepath.Join(out, fmt.Sprintf("conversation-%d.%s", id, exporter.Extension()))
			}
			if err := writeExport(path, func(w io.Writer) error { return exporter.Export(conv, w) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported conversation %d to %s\n", id, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (json, yaml, md, html)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file or directory (default stdout)")
	return cmd
}

// writeExport creates path and writes to it, removing the file on failure.
func writeExport(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
