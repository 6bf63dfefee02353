package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	mverrors "github.com/ivaylokenov/mytested/internal/errors"
	"github.com/ivaylokenov/mytested/pkg/mvc"
)

func newURLCmd(opts *rootOptions) *cobra.Command {
	var routeName string

	cmd := &cobra.Command{
		Use:   "url KEY=VALUE...",
		Short: "Generate a URL from route values",
		Long: `url generates the URL route values map to. Without --route the values must
name a controller and an action and the first route able to generate wins.`,
		Example: `  mytested url controller=Home action=About
  mytested url --route blog slug=hello-world`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(args)
			if err != nil {
				return err
			}
			table, err := opts.loadTable(cmd)
			if err != nil {
				return err
			}

			var u string
			if routeName != "" {
				ep, ok := table.Endpoint(routeName)
				if !ok {
					return mverrors.Newf(mverrors.GenerationErrorCode, "no route named '%s'", routeName)
				}
				u, err = ep.Generate(values)
			} else {
				u, err = table.URL(values)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().StringVarP(&routeName, "route", "r", "", "generate through the named route only")
	return cmd
}

func parseValues(args []string) (mvc.RouteValues, error) {
	values := make(mvc.RouteValues, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, mverrors.Newf(mverrors.ValidationErrorCode, "expected KEY=VALUE, got '%s'", arg)
		}
		values.Set(strings.TrimSpace(key), value)
	}
	return values, nil
}
