// Package main implements the pipeline worker: the process that drives
// learning-content items through the promotion pipeline on a timer, plus
// the database migration commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
