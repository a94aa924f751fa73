package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stract/termdict/pkg/termdict"
)

var insertCmd = &cobra.Command{
	Use:   "insert [terms...]",
	Short: "Insert terms and commit them to a new segment",
	Long: `Insert records one occurrence of each given term and immediately
commits the result to a new segment file, since the accumulator only
lives in memory for the lifetime of one process.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInsert,
}

func init() {
	rootCmd.AddCommand(insertCmd)
}

func runInsert(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	d, err := termdict.Open(dir)
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer d.Close()

	for _, term := range args {
		d.Insert(term)
	}
	if err := d.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.Info().Str("dir", dir).Int("count", len(args)).Msg("inserted and committed terms")
	return nil
}
