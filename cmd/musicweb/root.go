package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	noPages    bool
	tui        bool
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "musicweb <input-dir> <output-dir>",
		Short: "Publish lossless albums as a static download site",
		Long: "musicweb builds every album found in <input-dir> into <output-dir>: one\n" +
			"directory and archive per configured format plus static HTML pages.",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, args[0], args[1])
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVar(&opts.noPages, "no-pages", false, "Build albums without writing HTML pages")
	rootCmd.Flags().BoolVar(&opts.tui, "tui", false, "Show an interactive progress view")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print every progress event")

	rootCmd.AddCommand(newConfigCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))

	return rootCmd
}
