package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stract/termdict/pkg/termdict"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Flush any pending accumulator state and garbage-collect orphans",
	Long: `Commit exists mainly to run garbage collection on demand: since the
accumulator is process-local, a bare commit with no prior inserts in
the same process is a no-op and writes no new segment.`,
	Args: cobra.NoArgs,
	RunE: runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	d, err := termdict.Open(dir)
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer d.Close()

	if err := d.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if err := d.GC(); err != nil {
		return fmt.Errorf("gc: %w", err)
	}
	log.Info().Str("dir", dir).Msg("committed")
	return nil
}
