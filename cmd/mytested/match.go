package main

import (
	"github.com/spf13/cobra"

	"github.com/ivaylokenov/mytested/internal/cli"
	mverrors "github.com/ivaylokenov/mytested/internal/errors"
	"github.com/ivaylokenov/mytested/pkg/mvc"
)

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "match PATH",
		Short: "Show the route a path matches and the values it extracts",
		Long: `match runs a path through the route templates in evaluation order and
prints the first route whose template and constraints accept it. The query
string is ignored. Use --all to list every matching route.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			table, err := opts.loadTable(cmd)
			if err != nil {
				return err
			}

			path := mvc.CanonicalPath(args[0])
			matches := matchPath(table.Endpoints(), path, all)
			if len(matches) == 0 {
				return mverrors.Newf(mverrors.RoutingErrorCode, "no route matches '%s'", path).
					WithSuggestion("Run 'mytested routes' to list the registered templates")
			}
			cli.RenderMatches(cmd.OutOrStdout(), format, matches)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every matching route")
	return cmd
}

func matchPath(endpoints []*mvc.Endpoint, path string, all bool) []cli.Match {
	var matches []cli.Match
	for _, ep := range endpoints {
		values, ok := ep.Match(path)
		if !ok {
			continue
		}
		matches = append(matches, cli.Match{Endpoint: ep, Values: values})
		if !all {
			break
		}
	}
	return matches
}
