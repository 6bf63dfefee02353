package main

import (
	"github.com/spf13/cobra"

	"github.com/ivaylokenov/mytested/internal/cli"
)

func newRoutesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routes in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			table, err := opts.loadTable(cmd)
			if err != nil {
				return err
			}
			cli.RenderEndpoints(cmd.OutOrStdout(), format, table.Endpoints())
			return nil
		},
	}
}
