// Command termdictctl operates a persistent term-frequency dictionary
// directory from the command line: inserting terms, committing them,
// merging and pruning generations, and querying frequencies and
// fuzzy matches.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/stract/termdict/cmd/termdictctl/cmd"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()

	if err := cmd.Execute(log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
