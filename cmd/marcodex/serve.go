package main

import (
	"github.com/spf13/cobra"

	"github.com/wizenheimer/marcodex/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var opts httpapi.Options

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conjunctive/disjunctive queries over a built index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return httpapi.Serve(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.DataDir, "data-dir", "./data", "directory containing a built index")
	flags.StringVar(&opts.Addr, "addr", ":8080", "address to listen on")
	flags.StringVar(&opts.StaticDir, "static", "./static", "directory of static assets to serve (empty to disable)")
	flags.BoolVar(&opts.Stem, "stem", false, "apply Snowball stemming to incoming queries (must match the build)")

	return cmd
}
