package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ivaylokenov/mytested/internal/cli"
	"github.com/ivaylokenov/mytested/pkg/mvc"
	"github.com/ivaylokenov/mytested/pkg/testconfig"
)

// version is set at build time
var version = "dev"

type rootOptions struct {
	configPath string
	output     string
	verbose    bool
	noColor    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := &rootOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		cli.NewReporter(stderr, opts.verbose).ReportError("mytested failed", err)
		return 1
	}
	return 0
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mytested",
		Short: "Inspect the conventional routes used by route tests",
		Long: `mytested reads the route table declared in mytested.yaml and lets you
list its routes, see which of them match a path and generate URLs
from route values, the same way route tests resolve them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", testconfig.DefaultFileName, "configuration file")
	flags.StringVarP(&opts.output, "output", "o", string(cli.FormatTable), "output format: table, markdown or csv")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "trace route table work and show error details")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(
		newRoutesCmd(opts),
		newMatchCmd(opts),
		newURLCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadTable builds the route table described by the configuration file
func (o *rootOptions) loadTable(cmd *cobra.Command) (*mvc.RouteTable, error) {
	if _, err := os.Stat(o.configPath); errors.Is(err, os.ErrNotExist) {
		cli.NewReporter(cmd.ErrOrStderr(), o.verbose).
			ReportWarning("%s not found, using the default route", o.configPath)
	}

	cfg, err := testconfig.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg = cfg.ApplyEnv(nil)
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg.NewApplication(cmd.ErrOrStderr()).Build()
}

func (o *rootOptions) format() (cli.Format, error) {
	return cli.ParseFormat(o.output)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mytested version %s\n", version)
		},
	}
}
