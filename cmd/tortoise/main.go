package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/aleksaelezovic/tortoise/cmd/tortoise/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
