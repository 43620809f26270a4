package main

import (
	"github.com/spf13/cobra"

	"github.com/wizenheimer/marcodex/internal/build"
	"github.com/wizenheimer/marcodex/internal/config"
)

func newBuildCmd() *cobra.Command {
	var opts build.Options

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a disk-resident index from a gzip-compressed TREC corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return build.Run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.InputPath, "input", "", "path to the gzip-compressed TREC corpus (required)")
	flags.StringVar(&opts.DataDir, "data-dir", "./data", "output directory for the built index")
	flags.StringVar(&opts.ScratchDir, "scratch-dir", "./scratch", "scratch directory for intermediate batch files")
	flags.IntVar(&opts.BatchSize, "batch-size", config.DefaultBatchSize, "documents accumulated per in-memory batch before spilling")
	flags.BoolVar(&opts.Stem, "stem", false, "apply Snowball stemming during tokenization")
	flags.IntVar(&opts.DebugLimit, "debug-limit", 0, "stop after this many documents (0 = unlimited)")

	cmd.MarkFlagRequired("input")

	return cmd
}
