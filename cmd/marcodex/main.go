// Command marcodex implements the CLI surface spec.md §6 describes: a
// `build` subcommand that runs the indexing pipeline, and a `serve`
// subcommand that fronts the resulting index over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "marcodex",
		Short: "Disk-resident inverted index for MS MARCO TREC corpora",
	}

	root.AddCommand(newBuildCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
