package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameshelf/internal/model"
	"github.com/mcoot/gameshelf/internal/services/library"
)

func newExportCmd() *cobra.Command {
	var userID, format, file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's game list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("unknown format %q: must be json or csv", format)
			}

			app, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			if file != "" {
				f, err := os.Create(file)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			if format == "csv" {
				return app.Library.ExportCSV(cmd.Context(), model.UserID(userID), w)
			}
			entries, err := app.Library.Export(cmd.Context(), model.UserID(userID))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&format, "format", "json", "Export format: json, csv")
	cmd.Flags().StringVar(&file, "file", "", "Write to a file instead of stdout")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newImportCmd() *cobra.Command {
	var userID, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import list entries by game title",
		Long: `Import reads a JSON array of entries, each naming a game by title, and
adds them to the user's list. Games already on the list are skipped; unknown
titles and invalid entries are reported without stopping the import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			var items []library.ImportItem
			if err := json.NewDecoder(r).Decode(&items); err != nil {
				return fmt.Errorf("decode import: %w", err)
			}

			app, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := app.Library.Import(cmd.Context(), model.UserID(userID), items)
			if err != nil {
				return err
			}

			out := outputFor(cmd)
			if cfg.Output == "json" {
				out.Print(result)
				return nil
			}
			out.PrintMessage(fmt.Sprintf("Imported %d, skipped %d", result.Imported, result.Skipped))
			for _, msg := range result.Errors {
				out.PrintMessage("  - " + msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&file, "file", "-", "JSON file to read, - for stdin")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
