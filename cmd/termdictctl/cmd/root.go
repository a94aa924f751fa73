package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var log zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "termdictctl",
	Short: "Operate a persistent term-frequency dictionary",
	Long: `termdictctl manages a term-frequency dictionary directory used by
spell correction and query analysis: a log-structured set of
immutable, memory-mapped segment files plus a small JSON catalog.

  termdictctl insert -d ./dict word1 word2 ...   Insert terms
  termdictctl commit -d ./dict                    Commit and garbage-collect
  termdictctl merge -d ./dict                     Merge all segments
  termdictctl prune -d ./dict --top-n 100000      Drop low-frequency terms
  termdictctl freq -d ./dict word                 Look up a count
  termdictctl search -d ./dict word --edits 1     Fuzzy match
  termdictctl gc -d ./dict                        Remove orphaned segment files`,
}

// Execute runs the root command using logger for any CLI-level
// diagnostics.
func Execute(logger zerolog.Logger) error {
	log = logger
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("dir", "d", ".", "dictionary directory")
}
