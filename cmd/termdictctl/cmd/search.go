package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stract/termdict/pkg/termdict"
)

var searchEdits int

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Find terms within a bounded edit distance",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchEdits, "edits", 1, "maximum edit distance (0, 1, or 2)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	d, err := termdict.Open(dir)
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer d.Close()

	matches, err := d.Search(args[0], searchEdits)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	for _, m := range matches {
		fmt.Println(m)
	}
	return nil
}
