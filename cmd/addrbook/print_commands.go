package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/addrbook/internal/application"
	"github.com/JonMunkholm/addrbook/internal/layout"
)

func newEnvelopeCommand(ctx *commandContext) *cobra.Command {
	var (
		bold     bool
		fontSize int
		format   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "envelope <id>",
		Short: "Render an envelope for one address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid parameter: id must be a positive integer, got %q", args[0])
			}
			pageFormat, err := layout.ParsePageFormat(format)
			if err != nil {
				return err
			}

			return ctx.withApp(cmd, func(app *application.App) error {
				addr, err := app.Service.Address(cmd.Context(), id)
				if err != nil {
					return err
				}
				pdf, err := app.Printer.Envelope(addr, layout.EnvelopeOptions{
					Bold:     bold,
					FontSize: fontSize,
					Format:   pageFormat,
				})
				if err != nil {
					return fmt.Errorf("render envelope: %w", err)
				}

				path := output
				if path == "" {
					path = fmt.Sprintf("envelope-%d.pdf", id)
				}
				return writeOutput(cmd, path, pdf)
			})
		},
	}

	cmd.Flags().BoolVar(&bold, "bold", false, "Print the recipient name in bold")
	cmd.Flags().IntVar(&fontSize, "font-size", layout.DefaultEnvelopeFontSize, "Recipient font size (10-36)")
	cmd.Flags().StringVar(&format, "format", string(layout.FormatA4), "Page format: A4 or C6")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path, - for stdout (default envelope-<id>.pdf)")
	return cmd
}

func newLabelsCommand(ctx *commandContext) *cobra.Command {
	var fontSize int
	var output string

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Render label sheets for addresses marked for labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(app *application.App) error {
				records, err := app.Service.LabelAddresses(cmd.Context())
				if err != nil {
					return err
				}
				pdf, err := app.Printer.Labels(records, fontSize)
				if err != nil {
					return fmt.Errorf("render labels: %w", err)
				}
				if output != "-" {
					pages := (len(records) + layout.LabelsPerPage - 1) / layout.LabelsPerPage
					fmt.Fprintf(cmd.OutOrStdout(), "%d labels on %d sheet(s)\n", len(records), max(pages, 1))
				}
				return writeOutput(cmd, output, pdf)
			})
		},
	}

	cmd.Flags().IntVar(&fontSize, "font-size", layout.DefaultLabelFontSize, "Label font size (8-24)")
	cmd.Flags().StringVarP(&output, "output", "o", "labels.pdf", "Output path, - for stdout")
	return cmd
}

func newFontsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "Show which fonts the printer resolved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(app *application.App) error {
				set := app.Printer.Fonts()
				var rows [][]string
				for _, role := range []layout.Role{layout.RoleRegular, layout.RoleBold, layout.RoleItalic} {
					face := set.Face(role)
					source := face.Path
					if face.Builtin() {
						source = "built-in"
					}
					rows = append(rows, []string{role.String(), face.Family, face.Style, source})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Role", "Family", "Style", "Source"}, rows, nil))
				return nil
			})
		},
	}
}
