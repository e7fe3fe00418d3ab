package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/addrbook/internal/application"
	"github.com/JonMunkholm/addrbook/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every address as CSV, XLSX or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(app *application.App) error {
				ser, err := app.Exports.Lookup(format)
				if err != nil {
					return fmt.Errorf("%w (available: %v)", err, app.Exports.Available())
				}
				records, err := app.Service.Addresses(cmd.Context())
				if err != nil {
					return err
				}

				var buf bytes.Buffer
				if err := ser.Write(&buf, records); err != nil {
					return fmt.Errorf("render %s export: %w", ser.Extension(), err)
				}

				path := output
				if path == "" {
					path = export.Filename(ser)
				}
				return writeOutput(cmd, path, buf.Bytes())
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", export.FormatCSV, "Export format: csv, xlsx or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path, - for stdout (default addresses.<ext>)")
	return cmd
}
