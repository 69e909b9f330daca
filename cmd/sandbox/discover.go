package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wippyai/clr-host/discovery"
	"github.com/wippyai/clr-host/version"
)

func newDiscoverCmd(opts *options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Show which hosting library would be loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			target, err := parseRuntime(cfg.Runtime.Version)
			if err != nil {
				return err
			}
			return discover(cmd.OutOrStdout(), discovery.FromConfig(cfg.Runtime), target, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every installed hosting library")
	return cmd
}

func discover(out io.Writer, finder *discovery.Finder, target version.Version, all bool) error {
	if all {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tDIRECTORY")
		for _, c := range finder.Candidates() {
			fmt.Fprintf(w, "%s\t%s\n", c.Version, c.Dir)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	res, err := finder.Find(target)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "selected %s at %s\n", res.Version, res.Dir)
	return nil
}
