package main

// Entry point: runs the Cobra command tree.
// With no subcommand the top co-resistance pairs chart is rendered.

import (
	"fmt"
	"os"

	"amr-coresistance/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
