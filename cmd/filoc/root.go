package main

import (
	"github.com/spf13/cobra"

	"filoc/internal/version"
)

var (
	// configPath is the --config flag value; empty means .filoc/config.* in the working directory
	configPath string

	logLevelFlag  string
	logFormatFlag string
	verbosity     int
	quiet         bool
)

var rootCmd = &cobra.Command{
	Use:   "filoc",
	Short: "filoc - file localization for issue reports",
	Long: `filoc ranks the files of a repository by how likely they are to need
changes for a natural-language issue, combining BM25 lexical scores with
sentence-embedding similarity, and evaluates that ranking against the files
touched by reference patches (SWE-bench style benchmarks).`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a config file (default: .filoc/config.toml)")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&logFormatFlag, "log-format", "", "Log format (human, json, pretty)")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
}
