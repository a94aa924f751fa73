package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stract/termdict/pkg/termdict"
)

var freqCmd = &cobra.Command{
	Use:   "freq [term]",
	Short: "Print the aggregate count for a term",
	Args:  cobra.ExactArgs(1),
	RunE:  runFreq,
}

func init() {
	rootCmd.AddCommand(freqCmd)
}

func runFreq(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	d, err := termdict.Open(dir)
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer d.Close()

	count, ok, err := d.Freq(args[0])
	if err != nil {
		return fmt.Errorf("freq: %w", err)
	}
	if !ok {
		fmt.Printf("%s: not found\n", args[0])
		return nil
	}
	fmt.Printf("%s: %d\n", args[0], count)
	return nil
}
