package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stract/termdict/pkg/termdict"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge all segments into one, summing coinciding counts",
	Args:  cobra.NoArgs,
	RunE:  runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	d, err := termdict.Open(dir)
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer d.Close()

	if err := d.Merge(); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	log.Info().Str("dir", dir).Msg("merged segments")
	return nil
}
