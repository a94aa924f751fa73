package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stract/termdict/pkg/termdict"
)

var pruneTopN int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop low-frequency terms from every segment",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().IntVar(&pruneTopN, "top-n", 1_000_000, "number of highest counts to retain across all segments")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	d, err := termdict.Open(dir)
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer d.Close()

	if err := d.Prune(pruneTopN); err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	log.Info().Str("dir", dir).Int("top_n", pruneTopN).Msg("pruned segments")
	return nil
}
