package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/addrbook/internal/application"
	"github.com/JonMunkholm/addrbook/internal/core"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import addresses from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			name := filepath.Base(args[0])

			return ctx.withApp(cmd, func(app *application.App) error {
				summary, err := app.Service.Import(cmd.Context(), core.ImportRequest{
					Filename:    name,
					ContentType: mime.TypeByExtension(filepath.Ext(name)),
					Data:        data,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, summary)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the import summary as JSON")
	return cmd
}

func renderSummary(s *core.ImportSummary) string {
	out := renderTable(
		[]string{"Imported", "Rows", "Errors", "Delimiter", "Description column"},
		[][]string{{
			strconv.Itoa(s.ImportedCount),
			strconv.Itoa(s.TotalRows),
			strconv.Itoa(s.ErrorCount),
			s.DetectedDelimiter,
			yesNo(s.OptionalColumnsPresent),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
	if len(s.Errors) == 0 {
		return out
	}

	rows := make([][]string, len(s.Errors))
	for i, e := range s.Errors {
		rows[i] = []string{strconv.Itoa(e.Row), e.Message}
	}
	out += "\n" + renderTable([]string{"Row", "Error"}, rows, []columnAlignment{alignRight, alignLeft})
	if s.HasMoreErrors {
		out += fmt.Sprintf("\n... and %d more", s.ErrorCount-len(s.Errors))
	}
	return out
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
