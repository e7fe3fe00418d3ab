package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/addrbook/internal/application"
	"github.com/JonMunkholm/addrbook/internal/core"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var markedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(app *application.App) error {
				var (
					records []core.Address
					err     error
				)
				if markedOnly {
					records, err = app.Service.LabelAddresses(cmd.Context())
				} else {
					records, err = app.Service.Addresses(cmd.Context())
				}
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No addresses")
					return nil
				}

				rows := make([][]string, len(records))
				for i, a := range records {
					rows[i] = []string{
						strconv.FormatInt(a.ID, 10),
						a.LastName,
						a.FirstName,
						a.Street,
						a.ApartmentNo,
						a.PostalCode,
						a.City,
						yesNo(a.LabelMarked),
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Last name", "First name", "Street", "Apt", "Postal code", "City", "Label"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&markedOnly, "marked", false, "Only addresses marked for labels")
	return cmd
}
