package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stract/termdict/pkg/termdict"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove segment files no longer referenced by the catalog",
	Args:  cobra.NoArgs,
	RunE:  runGC,
}

func init() {
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	d, err := termdict.Open(dir)
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer d.Close()

	if err := d.GC(); err != nil {
		return fmt.Errorf("gc: %w", err)
	}
	log.Info().Str("dir", dir).Msg("garbage collected orphaned segments")
	return nil
}
